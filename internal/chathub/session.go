package chathub

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"
)

type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RoomResolver is the part of the Directory a session needs.
type RoomResolver interface {
	ResolveOrCreate(ctx context.Context, requester models.User, peerNickname string) (*models.ChatRoom, error)
	SetActive(ctx context.Context, roomID uint, active bool) (*models.ChatRoom, error)
}

// Publisher hands committed events to the relay.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// SessionDeps are the collaborators a session is built with.
type SessionDeps struct {
	Rooms    RoomResolver
	Messages storage.MessageStore
	Relay    Publisher
}

// Session is the protocol state machine of one live connection:
// CONNECTING -> ACTIVE -> CLOSED, with no way back.
type Session struct {
	user         models.User
	peerNickname string
	deps         SessionDeps

	// Attach is called with the resolved room id before USER_JOIN is
	// published, so the connection is registered in time to see its own join.
	Attach func(roomID uint)

	mu        sync.Mutex
	state     State
	room      *models.ChatRoom
	closeOnce sync.Once
}

func NewSession(user models.User, peerNickname string, deps SessionDeps) *Session {
	return &Session{
		user:         user,
		peerNickname: peerNickname,
		deps:         deps,
		state:        StateConnecting,
	}
}

func (s *Session) User() models.User { return s.user }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Room returns the resolved room, nil until Connect succeeds.
func (s *Session) Room() *models.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Connect resolves the room, loads its history and publishes USER_JOIN.
// Self-chat is rejected before the directory is touched. Any failure closes
// the session, so Connect runs at most once.
func (s *Session) Connect(ctx context.Context) (_ *models.ChatRoom, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidRequest, s.state)
	}
	defer func() {
		if err != nil {
			s.state = StateClosed
			s.room = nil
		}
	}()

	if s.user.Nickname == s.peerNickname {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrInvalidRequest)
	}

	room, err := s.deps.Rooms.ResolveOrCreate(ctx, s.user, s.peerNickname)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Rooms.SetActive(ctx, room.ID, true); err != nil {
		log.Printf("WARN: Could not mark room %d active: %v", room.ID, err)
	}

	history, err := s.deps.Messages.GetChatHistory(ctx, room.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: history of room %d: %w", ErrStore, room.ID, err)
	}

	s.room = room
	if s.Attach != nil {
		s.Attach(room.ID)
	}

	if err := s.deps.Relay.Publish(ctx, models.NewUserJoinEvent(room.ID, s.user, history)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelay, err)
	}
	s.state = StateActive
	log.Printf("INFO: User %s joined room %d.", s.user.Nickname, room.ID)
	return room, nil
}

// Receive applies one inbound action. Every failure comes back as an error
// classified by ErrorCode and leaves the session ACTIVE; nothing is
// published for an action that failed to persist.
func (s *Session) Receive(ctx context.Context, action models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateConnecting:
		return fmt.Errorf("%w: session is not connected", ErrInvalidRequest)
	}

	switch a := action.(type) {
	case models.CreateAction:
		return s.create(ctx, a)
	case models.UpdateAction:
		return s.update(ctx, a)
	case models.DeleteAction:
		return s.delete(ctx, a)
	}
	return fmt.Errorf("%w: unsupported action %T", ErrInvalidRequest, action)
}

func (s *Session) create(ctx context.Context, a models.CreateAction) error {
	msg := &models.ChatMessage{
		RoomID:   s.room.ID,
		AuthorID: s.user.ID,
		Content:  a.Content,
	}
	if err := s.deps.Messages.SaveMessage(ctx, msg); err != nil {
		log.Printf("ERROR: Error adding message to room %d: %v", s.room.ID, err)
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return s.publish(ctx, models.NewCreateMessageEvent(s.user, *msg))
}

func (s *Session) update(ctx context.Context, a models.UpdateAction) error {
	if err := s.ownMessage(ctx, a.MessageID); err != nil {
		return err
	}
	msg, err := s.deps.Messages.UpdateMessage(ctx, a.MessageID, a.Content)
	if err != nil {
		return messageErr(a.MessageID, err)
	}
	return s.publish(ctx, models.NewUpdateMessageEvent(*msg))
}

func (s *Session) delete(ctx context.Context, a models.DeleteAction) error {
	if err := s.ownMessage(ctx, a.MessageID); err != nil {
		return err
	}
	if err := s.deps.Messages.DeleteMessage(ctx, a.MessageID); err != nil {
		return messageErr(a.MessageID, err)
	}
	return s.publish(ctx, models.NewDeleteMessageEvent(s.room.ID, a.MessageID))
}

// ownMessage checks the message exists and belongs to this session's room.
func (s *Session) ownMessage(ctx context.Context, id uint) error {
	msg, err := s.deps.Messages.GetMessage(ctx, id)
	if err != nil {
		return messageErr(id, err)
	}
	if msg.RoomID != s.room.ID {
		return fmt.Errorf("%w: message %d", ErrNotFound, id)
	}
	return nil
}

func messageErr(id uint, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: message %d", ErrNotFound, id)
	}
	return fmt.Errorf("%w: message %d: %w", ErrStore, id, err)
}

func (s *Session) publish(ctx context.Context, event models.RoomEvent) error {
	if err := s.deps.Relay.Publish(ctx, event); err != nil {
		log.Printf("ERROR: Failed to relay %s for room %d: %v", event.EventType(), event.EventRoomID(), err)
		return fmt.Errorf("%w: %w", ErrRelay, err)
	}
	return nil
}

// Disconnect moves the session to CLOSED and publishes USER_LEAVE if it was
// ACTIVE. Only the first call has any effect. Room membership is untouched;
// leaving a room is Directory.Leave.
func (s *Session) Disconnect(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		wasActive := s.state == StateActive
		s.state = StateClosed
		if !wasActive {
			return
		}
		if perr := s.deps.Relay.Publish(ctx, models.NewUserLeaveEvent(s.room.ID, s.user)); perr != nil {
			err = fmt.Errorf("%w: %w", ErrRelay, perr)
			return
		}
		log.Printf("INFO: User %s left room %d.", s.user.Nickname, s.room.ID)
	})
	return err
}
