package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"pairchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// disconnectTimeout bounds the USER_LEAVE publish after the socket is gone.
	disconnectTimeout = 5 * time.Second
)

// Translator localizes ERROR frame details.
type Translator interface {
	GetString(lang, key string) string
}

// WebSocketClient реалізує інтерфейс chathub.Client поверх gorilla/websocket
// і проганяє Session через її стани.
type WebSocketClient struct {
	ID      string
	Conn    *websocket.Conn
	Hub     Registry
	Session *Session
	// Send receives relay events from the hub.
	Send chan []byte

	Localizer Translator
	Lang      string

	replies   chan []byte
	quit      chan struct{}
	closeOnce sync.Once
}

func NewWebSocketClient(conn *websocket.Conn, hub Registry, session *Session, bufferSize int) *WebSocketClient {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	c := &WebSocketClient{
		ID:      uuid.New().String(),
		Conn:    conn,
		Hub:     hub,
		Session: session,
		Send:    make(chan []byte, bufferSize),
		replies: make(chan []byte, 16),
		quit:    make(chan struct{}),
	}
	session.Attach = func(roomID uint) { hub.Register(roomID, c) }
	return c
}

func (c *WebSocketClient) GetID() string                 { return c.ID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }

// Close stops the write pump, which closes the socket and with it the read pump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// Run connects the session and starts the pumps. A failed connect is
// reported with an ERROR frame and the socket is closed.
func (c *WebSocketClient) Run(ctx context.Context) {
	go c.writePump(ctx)

	if _, err := c.Session.Connect(ctx); err != nil {
		log.Printf("WARN: Connect of %s to %q failed: %v", c.Session.User().Nickname, c.Session.peerNickname, err)
		c.reply(err)
		_ = c.Session.Disconnect(ctx)
		c.Hub.Deregister(c)
		c.Close()
		return
	}
	go c.readPump(ctx)
}

func (c *WebSocketClient) readPump(ctx context.Context) {
	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if err := c.Session.Disconnect(dctx); err != nil {
			log.Printf("ERROR: Disconnect of client %s: %v", c.ID, err)
		}
		c.Hub.Deregister(c)
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			return
		}

		action, err := models.ParseAction(message)
		if err != nil {
			log.Printf("Error decoding action from client %s: %v", c.ID, err)
			c.reply(err)
			continue
		}

		if err := c.Session.Receive(ctx, action); err != nil {
			c.reply(err)
			if errors.Is(err, ErrSessionClosed) {
				return
			}
		}
	}
}

// reply queues an ERROR frame for this connection only.
func (c *WebSocketClient) reply(err error) {
	code := ErrorCode(err)
	detail := code
	if c.Localizer != nil {
		detail = c.Localizer.GetString(c.Lang, code)
	}
	frame, _ := json.Marshal(models.ErrorFrame{Type: models.EventError, Code: code, Detail: detail})
	select {
	case c.replies <- frame:
	default:
		log.Printf("WARN: Reply buffer of client %s is full, dropping %s", c.ID, code)
	}
}

func (c *WebSocketClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			if err := c.write(message); err != nil {
				return
			}

		case message := <-c.replies:
			if err := c.write(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.quit:
			c.drainReplies()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// drainReplies flushes pending ERROR frames, e.g. a failed connect.
func (c *WebSocketClient) drainReplies() {
	for {
		select {
		case message := <-c.replies:
			if err := c.write(message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *WebSocketClient) write(message []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, message)
}
