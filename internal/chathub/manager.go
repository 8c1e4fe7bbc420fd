package chathub

import (
	"context"
	"log"
)

// Registry maps rooms to the connections this process holds and delivers
// events to them.
type Registry interface {
	Register(roomID uint, c Client)
	Deregister(c Client)
	Broadcast(roomID uint, payload []byte)
}

type registration struct {
	roomID uint
	client Client
}

type delivery struct {
	roomID  uint
	payload []byte
}

type sizeQuery struct {
	roomID uint
	reply  chan int
}

// ManagerService is the process-local connection registry. All state is
// owned by the Run goroutine; callers talk to it over channels, so it is
// safe for one relay consumer and many sessions at once.
type ManagerService struct {
	rooms   map[uint]map[string]Client
	clients map[string]uint

	RegisterCh   chan registration
	UnregisterCh chan Client
	BroadcastCh  chan delivery
	sizeCh       chan sizeQuery
	done         chan struct{}
}

func NewManagerService() *ManagerService {
	return &ManagerService{
		rooms:        make(map[uint]map[string]Client),
		clients:      make(map[string]uint),
		RegisterCh:   make(chan registration),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan delivery, 64),
		sizeCh:       make(chan sizeQuery),
		done:         make(chan struct{}),
	}
}

// Register adds c to roomID. A client already registered elsewhere is moved.
func (m *ManagerService) Register(roomID uint, c Client) {
	select {
	case m.RegisterCh <- registration{roomID: roomID, client: c}:
	case <-m.done:
	}
}

// Deregister removes c and closes it. Unknown clients are ignored.
func (m *ManagerService) Deregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

func (m *ManagerService) Broadcast(roomID uint, payload []byte) {
	select {
	case m.BroadcastCh <- delivery{roomID: roomID, payload: payload}:
	case <-m.done:
	}
}

// RoomSize returns how many local connections are registered to roomID.
func (m *ManagerService) RoomSize(roomID uint) int {
	q := sizeQuery{roomID: roomID, reply: make(chan int, 1)}
	select {
	case m.sizeCh <- q:
		return <-q.reply
	case <-m.done:
		return 0
	}
}

// Run обробляє реєстрації та розсилки, доки ctx не буде скасовано.
// On exit every remaining client is closed.
func (m *ManagerService) Run(ctx context.Context) {
	defer func() {
		close(m.done)
		for _, room := range m.rooms {
			for _, c := range room {
				c.Close()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-m.RegisterCh:
			m.remove(r.client.GetID())
			room, ok := m.rooms[r.roomID]
			if !ok {
				room = make(map[string]Client)
				m.rooms[r.roomID] = room
			}
			room[r.client.GetID()] = r.client
			m.clients[r.client.GetID()] = r.roomID

		case c := <-m.UnregisterCh:
			if m.remove(c.GetID()) {
				c.Close()
			}

		case d := <-m.BroadcastCh:
			m.deliver(d)

		case q := <-m.sizeCh:
			q.reply <- len(m.rooms[q.roomID])
		}
	}
}

func (m *ManagerService) deliver(d delivery) {
	for id, client := range m.rooms[d.roomID] {
		select {
		case client.GetSendChannel() <- d.payload:
		default:
			// Повільний клієнт: закриваємо його, щоб не блокувати решту кімнати.
			log.Printf("WARN: Dropping slow client %s in room %d", id, d.roomID)
			m.remove(id)
			client.Close()
		}
	}
}

func (m *ManagerService) remove(id string) bool {
	roomID, ok := m.clients[id]
	if !ok {
		return false
	}
	delete(m.clients, id)
	if room := m.rooms[roomID]; room != nil {
		delete(room, id)
		if len(room) == 0 {
			delete(m.rooms, roomID)
		}
	}
	return true
}
