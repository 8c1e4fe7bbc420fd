package models

import "time"

// ChatMessage is a persisted message of a room. There is no soft delete:
// removing a message drops the row.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index:idx_room_msg" json:"room_id"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"context"`
	CreatedAt time.Time `gorm:"index:idx_room_msg" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
