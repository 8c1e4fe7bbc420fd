package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ChatRoom represents a pairwise chat between exactly two users.
// Name holds the canonical label "<nickname>|<nickname>" written once at
// creation; viewers only ever see it through ViewerLabel.
type ChatRoom struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the canonical label, or the viewer-facing one after ApplyViewerLabel.
	Name string `gorm:"size:129;not null" json:"room_name"`
	// PairKey is the unordered member pair, see PairKey().
	PairKey string `gorm:"uniqueIndex;size:64;not null" json:"-"`
	// Active is flipped independently of membership.
	Active    bool      `gorm:"not null;default:false" json:"active"`
	CreatedAt time.Time `json:"created_at"`

	Users    []User        `gorm:"many2many:room_members;" json:"users,omitempty"`
	Messages []ChatMessage `gorm:"foreignKey:RoomID" json:"room_messages,omitempty"`
}

// PairKey canonicalises an unordered pair of user ids.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CanonicalLabel builds the stored room name for a requester and a peer.
func CanonicalLabel(requester, peer string) string {
	return requester + LabelSeparator + peer
}

// ViewerLabel removes the viewer's own nickname token from a canonical label,
// leaving the other participant's nickname.
func ViewerLabel(canonical, viewer string) string {
	tokens := strings.SplitN(canonical, LabelSeparator, 2)
	if len(tokens) != 2 {
		return canonical
	}
	idx := lo.IndexOf(tokens, viewer)
	if idx < 0 {
		return canonical
	}
	return tokens[1-idx]
}

// ApplyViewerLabel rewrites Name in place for the given viewer.
func (r *ChatRoom) ApplyViewerLabel(viewer string) {
	r.Name = ViewerLabel(r.Name, viewer)
}

// HasMember reports whether userID is in the loaded membership.
func (r *ChatRoom) HasMember(userID uint) bool {
	return lo.ContainsBy(r.Users, func(u User) bool { return u.ID == userID })
}
