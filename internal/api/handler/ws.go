package handler

import (
	"log"
	"net/http"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/localization"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дозволяє з'єднання з будь-якого домену. У продакшені налаштувати!
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket оновлює HTTP-з'єднання до WebSocket і запускає сесію чату
// з користувачем ?peer=<nickname>.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	peer := c.Query("peer")
	if peer == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": "peer is required"})
		return
	}

	session := chathub.NewSession(currentUser(c), peer, chathub.SessionDeps{
		Rooms:    h.Directory,
		Messages: h.Store,
		Relay:    h.Relay,
	})

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Printf("WARN: Failed to upgrade connection: %v", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, session, h.SendBufferSize)
	if h.Localizer != nil {
		client.Localizer = h.Localizer
	}
	client.Lang = c.DefaultQuery("lang", localization.DefaultLanguage)
	client.Run(h.Ctx)
}
