package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// LabelSeparator joins the two nicknames of a room's canonical label.
const LabelSeparator = "|"

var (
	ErrEmptyNickname   = errors.New("nickname must not be empty")
	ErrInvalidNickname = errors.New("nickname must not contain " + LabelSeparator)
)

// User представляє зареєстрованого користувача чату.
// Nickname унікальний і ніколи не містить LabelSeparator: на цьому тримається
// розбір канонічної назви кімнати.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"uniqueIndex;size:64;not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateNickname enforces the nickname invariants the room labels rely on.
func ValidateNickname(nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return ErrEmptyNickname
	}
	if strings.Contains(nickname, LabelSeparator) {
		return ErrInvalidNickname
	}
	return nil
}

// BeforeSave: хук GORM, який не дає зберегти некоректний нікнейм.
func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	return ValidateNickname(u.Nickname)
}
