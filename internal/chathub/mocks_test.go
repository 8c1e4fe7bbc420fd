package chathub_test

import (
	"context"

	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockMessageStore is a testify mock of storage.MessageStore.
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockMessageStore) UpdateMessage(ctx context.Context, id uint, content string) (*models.ChatMessage, error) {
	args := m.Called(ctx, id, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockMessageStore) DeleteMessage(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageStore) GetChatHistory(ctx context.Context, roomID uint) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

// MockRoomStore wraps a real store and lets single methods be overridden
// with expectations; methods without one fall through to Store.
type MockRoomStore struct {
	mock.Mock
	storage.RoomStore
	failSetActive bool
	// beforeAdd runs ahead of AddRoomMembers.
	beforeAdd func()
}

func (m *MockRoomStore) AddRoomMembers(ctx context.Context, roomID uint, users ...models.User) error {
	if m.beforeAdd != nil {
		m.beforeAdd()
	}
	return m.RoomStore.AddRoomMembers(ctx, roomID, users...)
}

func (m *MockRoomStore) SetRoomActive(ctx context.Context, id uint, active bool) error {
	if !m.failSetActive {
		return m.RoomStore.SetRoomActive(ctx, id, active)
	}
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockResolver is a testify mock of chathub.RoomResolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveOrCreate(ctx context.Context, requester models.User, peerNickname string) (*models.ChatRoom, error) {
	args := m.Called(ctx, requester, peerNickname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockResolver) SetActive(ctx context.Context, roomID uint, active bool) (*models.ChatRoom, error) {
	args := m.Called(ctx, roomID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

// MockPublisher is a testify mock of chathub.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event any) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
