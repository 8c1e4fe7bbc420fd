package models

import "github.com/samber/lo"

type EventType string

const (
	EventUserJoin      EventType = "USER_JOIN"
	EventCreateMessage EventType = "CREATE_MESSAGE"
	EventUpdateMessage EventType = "UPDATE_MESSAGE"
	EventDeleteMessage EventType = "DELETE_MESSAGE"
	EventUserLeave     EventType = "USER_LEAVE"
	// EventError frames are written only to the connection that caused them
	// and never go through the relay.
	EventError EventType = "ERROR"
)

// RoomEvent is anything published on the chat rooms topic.
type RoomEvent interface {
	EventType() EventType
	EventRoomID() uint
}

// Envelope is the routing part every RoomEvent carries on the wire.
type Envelope struct {
	Type   EventType `json:"type"`
	RoomID uint      `json:"room_id"`
}

type EventUser struct {
	UserID       uint   `json:"user_id"`
	UserNickname string `json:"user_nickname"`
}

type BacklogMessage struct {
	MessageID      uint   `json:"message_id"`
	MessageContext string `json:"message_context"`
	AuthorID       uint   `json:"author_id"`
}

type EventMessage struct {
	MessageID      uint   `json:"message_id"`
	MessageContext string `json:"message_context"`
}

type UserJoinEvent struct {
	Type         EventType        `json:"type"`
	RoomID       uint             `json:"room_id"`
	User         EventUser        `json:"user"`
	ChatMessages []BacklogMessage `json:"chat_messages"`
}

type CreateMessageEvent struct {
	Type    EventType    `json:"type"`
	RoomID  uint         `json:"room_id"`
	User    EventUser    `json:"user"`
	Message EventMessage `json:"message"`
}

type UpdateMessageEvent struct {
	Type           EventType `json:"type"`
	RoomID         uint      `json:"room_id"`
	MessageID      uint      `json:"message_id"`
	MessageContext string    `json:"message_context"`
}

type DeleteMessageEvent struct {
	Type      EventType `json:"type"`
	RoomID    uint      `json:"room_id"`
	MessageID uint      `json:"message_id"`
}

type UserLeaveEvent struct {
	Type         EventType `json:"type"`
	RoomID       uint      `json:"room_id"`
	UserID       uint      `json:"user_id"`
	UserNickname string    `json:"user_nickname"`
}

// ErrorFrame reports a failed action back to its own connection.
type ErrorFrame struct {
	Type   EventType `json:"type"`
	Code   string    `json:"code"`
	Detail string    `json:"detail"`
}

func (e UserJoinEvent) EventType() EventType      { return e.Type }
func (e UserJoinEvent) EventRoomID() uint         { return e.RoomID }
func (e CreateMessageEvent) EventType() EventType { return e.Type }
func (e CreateMessageEvent) EventRoomID() uint    { return e.RoomID }
func (e UpdateMessageEvent) EventType() EventType { return e.Type }
func (e UpdateMessageEvent) EventRoomID() uint    { return e.RoomID }
func (e DeleteMessageEvent) EventType() EventType { return e.Type }
func (e DeleteMessageEvent) EventRoomID() uint    { return e.RoomID }
func (e UserLeaveEvent) EventType() EventType     { return e.Type }
func (e UserLeaveEvent) EventRoomID() uint        { return e.RoomID }

func eventUser(u User) EventUser {
	return EventUser{UserID: u.ID, UserNickname: u.Nickname}
}

// NewUserJoinEvent builds a join event; an empty history is encoded as [].
func NewUserJoinEvent(roomID uint, user User, history []ChatMessage) UserJoinEvent {
	return UserJoinEvent{
		Type:   EventUserJoin,
		RoomID: roomID,
		User:   eventUser(user),
		ChatMessages: lo.Map(history, func(m ChatMessage, _ int) BacklogMessage {
			return BacklogMessage{MessageID: m.ID, MessageContext: m.Content, AuthorID: m.AuthorID}
		}),
	}
}

func NewCreateMessageEvent(author User, msg ChatMessage) CreateMessageEvent {
	return CreateMessageEvent{
		Type:    EventCreateMessage,
		RoomID:  msg.RoomID,
		User:    eventUser(author),
		Message: EventMessage{MessageID: msg.ID, MessageContext: msg.Content},
	}
}

func NewUpdateMessageEvent(msg ChatMessage) UpdateMessageEvent {
	return UpdateMessageEvent{
		Type:           EventUpdateMessage,
		RoomID:         msg.RoomID,
		MessageID:      msg.ID,
		MessageContext: msg.Content,
	}
}

func NewDeleteMessageEvent(roomID, messageID uint) DeleteMessageEvent {
	return DeleteMessageEvent{Type: EventDeleteMessage, RoomID: roomID, MessageID: messageID}
}

func NewUserLeaveEvent(roomID uint, user User) UserLeaveEvent {
	return UserLeaveEvent{
		Type:         EventUserLeave,
		RoomID:       roomID,
		UserID:       user.ID,
		UserNickname: user.Nickname,
	}
}
