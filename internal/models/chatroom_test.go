package models_test

import (
	"testing"

	"pairchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPairKey_IsSymmetric(t *testing.T) {
	assert.Equal(t, "3:7", models.PairKey(3, 7))
	assert.Equal(t, models.PairKey(3, 7), models.PairKey(7, 3))
	assert.NotEqual(t, models.PairKey(1, 23), models.PairKey(12, 3))
}

func TestViewerLabel(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		viewer    string
		want      string
	}{
		{name: "requester sees peer", canonical: "alice|bob", viewer: "alice", want: "bob"},
		{name: "peer sees requester", canonical: "alice|bob", viewer: "bob", want: "alice"},
		{name: "stranger sees canonical", canonical: "alice|bob", viewer: "eve", want: "alice|bob"},
		{name: "no separator", canonical: "alice", viewer: "alice", want: "alice"},
		{name: "prefix is not a token", canonical: "al|alice", viewer: "alice", want: "al"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ViewerLabel(tt.canonical, tt.viewer))
		})
	}
}

func TestChatRoom_ApplyViewerLabelAndHasMember(t *testing.T) {
	// Arrange
	room := &models.ChatRoom{
		Name:  models.CanonicalLabel("alice", "bob"),
		Users: []models.User{{ID: 1, Nickname: "alice"}, {ID: 2, Nickname: "bob"}},
	}

	// Act
	room.ApplyViewerLabel("bob")

	// Assert
	assert.Equal(t, "alice", room.Name)
	assert.True(t, room.HasMember(1))
	assert.True(t, room.HasMember(2))
	assert.False(t, room.HasMember(3))
}
