package storage_test

import (
	"sync"
	"testing"
	"time"

	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"
	"pairchat/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(t *testing.T, s *storage.Service, a, b models.User) *models.ChatRoom {
	t.Helper()
	room := &models.ChatRoom{
		Name:    models.CanonicalLabel(a.Nickname, b.Nickname),
		PairKey: models.PairKey(a.ID, b.ID),
		Users:   []models.User{a, b},
	}
	require.NoError(t, s.CreateRoom(t.Context(), room))
	return room
}

func TestCreateUser_RejectsSeparatorInNickname(t *testing.T) {
	s := storagetest.NewService(t)

	err := s.CreateUser(t.Context(), &models.User{Nickname: "al|ice"})

	assert.ErrorIs(t, err, models.ErrInvalidNickname)
}

func TestGetUserByNickname_NotFound(t *testing.T) {
	s := storagetest.NewService(t)

	_, err := s.GetUserByNickname(t.Context(), "ghost")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMessages_CRUD(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])

	// Create
	msg := &models.ChatMessage{RoomID: room.ID, AuthorID: users[0].ID, Content: "hi"}
	require.NoError(t, s.SaveMessage(ctx, msg))
	require.NotZero(t, msg.ID)

	got, err := s.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Content)
	assert.Equal(t, users[0].ID, got.AuthorID)

	// Update
	updated, err := s.UpdateMessage(ctx, msg.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Content)
	assert.Equal(t, room.ID, updated.RoomID)

	// Delete is destructive
	require.NoError(t, s.DeleteMessage(ctx, msg.ID))
	_, err = s.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMessage(ctx, msg.ID), storage.ErrNotFound)

	_, err = s.UpdateMessage(ctx, msg.ID, "again")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetChatHistory_CreationOrder(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])

	empty, err := s.GetChatHistory(ctx, room.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.SaveMessage(ctx, &models.ChatMessage{RoomID: room.ID, AuthorID: users[1].ID, Content: content}))
	}

	history, err := s.GetChatHistory(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
}

func TestCreateRoom_PairKeyIsUnique(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])

	dup := &models.ChatRoom{
		Name:    models.CanonicalLabel("bob", "alice"),
		PairKey: models.PairKey(users[1].ID, users[0].ID),
		Users:   []models.User{users[1], users[0]},
	}
	assert.Error(t, s.CreateRoom(ctx, dup))

	// Both directions find the same room.
	forward, err := s.FindRoomByPair(ctx, users[0].ID, users[1].ID, storage.RoomLoad{Members: true})
	require.NoError(t, err)
	backward, err := s.FindRoomByPair(ctx, users[1].ID, users[0].ID, storage.RoomLoad{})
	require.NoError(t, err)
	assert.Equal(t, room.ID, forward.ID)
	assert.Equal(t, room.ID, backward.ID)
	assert.Len(t, forward.Users, 2)
	assert.Empty(t, backward.Users, "members are only loaded on request")
}

func TestGetRoomByID_LoadsRequestedCollections(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])
	require.NoError(t, s.SaveMessage(ctx, &models.ChatMessage{RoomID: room.ID, AuthorID: users[0].ID, Content: "hi"}))

	full, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{Members: true, Messages: true})
	require.NoError(t, err)
	assert.Len(t, full.Users, 2)
	assert.Len(t, full.Messages, 1)

	bare, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{})
	require.NoError(t, err)
	assert.Empty(t, bare.Users)
	assert.Empty(t, bare.Messages)

	_, err = s.GetRoomByID(ctx, room.ID+100, storage.RoomLoad{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListRoomsForUser(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob", "carol")
	ab := newRoom(t, s, users[0], users[1])
	ac := newRoom(t, s, users[0], users[2])
	newRoom(t, s, users[1], users[2])

	rooms, err := s.ListRoomsForUser(ctx, users[0].ID, storage.RoomLoad{Members: true})
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, ab.ID, rooms[0].ID)
	assert.Equal(t, ac.ID, rooms[1].ID)
	assert.Len(t, rooms[0].Users, 2)
}

func TestSetRoomActive(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])

	require.NoError(t, s.SetRoomActive(ctx, room.ID, true))
	got, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{})
	require.NoError(t, err)
	assert.True(t, got.Active)

	assert.ErrorIs(t, s.SetRoomActive(ctx, room.ID+1, true), storage.ErrNotFound)
}

func TestRemoveRoomMember_LastMemberDeletesRoom(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])
	require.NoError(t, s.SaveMessage(ctx, &models.ChatMessage{RoomID: room.ID, AuthorID: users[0].ID, Content: "hi"}))

	remaining, err := s.RemoveRoomMember(ctx, room.ID, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	left, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{Members: true})
	require.NoError(t, err)
	require.Len(t, left.Users, 1)
	assert.Equal(t, users[1].ID, left.Users[0].ID)

	remaining, err = s.RemoveRoomMember(ctx, room.ID, users[1].ID)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = s.GetRoomByID(ctx, room.ID, storage.RoomLoad{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindRoomByPair(ctx, users[0].ID, users[1].ID, storage.RoomLoad{})
	assert.ErrorIs(t, err, storage.ErrNotFound, "the pair key is free again")

	history, err := s.GetChatHistory(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "messages go with the room")

	_, err = s.RemoveRoomMember(ctx, room.ID, users[1].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRemoveRoomMember_Concurrent(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])

	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.RemoveRoomMember(ctx, room.ID, u.ID)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	_, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{})
	assert.ErrorIs(t, err, storage.ErrNotFound, "no empty room survives")
}

func TestDeleteRoom(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])
	require.NoError(t, s.SaveMessage(ctx, &models.ChatMessage{RoomID: room.ID, AuthorID: users[0].ID, Content: "hi"}))

	require.NoError(t, s.DeleteRoom(ctx, room.ID))

	_, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	rooms, err := s.ListRoomsForUser(ctx, users[0].ID, storage.RoomLoad{})
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.ErrorIs(t, s.DeleteRoom(ctx, room.ID), storage.ErrNotFound)
}

func TestAddRoomMembers_Rejoin(t *testing.T) {
	ctx := t.Context()
	s := storagetest.NewService(t)
	users := storagetest.CreateUsers(t, s, "alice", "bob")
	room := newRoom(t, s, users[0], users[1])
	_, err := s.RemoveRoomMember(ctx, room.ID, users[0].ID)
	require.NoError(t, err)

	require.NoError(t, s.AddRoomMembers(ctx, room.ID, users[0]))
	// Adding an existing member is a no-op.
	require.NoError(t, s.AddRoomMembers(ctx, room.ID, users[1]))

	got, err := s.GetRoomByID(ctx, room.ID, storage.RoomLoad{Members: true})
	require.NoError(t, err)
	require.Len(t, got.Users, 2)
	assert.Equal(t, users[0].ID, got.Users[0].ID)
	assert.Equal(t, users[1].ID, got.Users[1].ID)

	assert.ErrorIs(t, s.AddRoomMembers(ctx, room.ID+100, users[0]), storage.ErrNotFound)
}

func TestVerificationCodes(t *testing.T) {
	ctx := t.Context()
	mr, rdb := storagetest.NewRedis(t)
	s := storage.NewStorageService(nil, rdb)

	require.NoError(t, s.SaveVerificationCode(ctx, "a@example.com", "123456", time.Minute))

	ok, err := s.ConsumeVerificationCode(ctx, "a@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code")

	ok, err = s.ConsumeVerificationCode(ctx, "a@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ConsumeVerificationCode(ctx, "a@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "codes are single use")

	require.NoError(t, s.SaveVerificationCode(ctx, "b@example.com", "654321", time.Minute))
	mr.FastForward(2 * time.Minute)
	ok, err = s.ConsumeVerificationCode(ctx, "b@example.com", "654321")
	require.NoError(t, err)
	assert.False(t, ok, "expired code")
}
