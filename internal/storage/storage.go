package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"pairchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a user, room or message does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate record")
)

// RoomLoad lists the associated collections a room query must load.
type RoomLoad struct {
	Members  bool
	Messages bool
}

// MessageStore is the durable CRUD for chat messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error)
	UpdateMessage(ctx context.Context, id uint, content string) (*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, id uint) error
	GetChatHistory(ctx context.Context, roomID uint) ([]models.ChatMessage, error)
}

// RoomStore persists users, rooms and room membership.
type RoomStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (*models.User, error)

	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoomByPair(ctx context.Context, a, b uint, load RoomLoad) (*models.ChatRoom, error)
	GetRoomByID(ctx context.Context, id uint, load RoomLoad) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID uint, load RoomLoad) ([]models.ChatRoom, error)
	SetRoomActive(ctx context.Context, id uint, active bool) error
	AddRoomMembers(ctx context.Context, roomID uint, users ...models.User) error
	// RemoveRoomMember deletes the room once its last member is gone.
	RemoveRoomMember(ctx context.Context, roomID, userID uint) (remaining int64, err error)
	DeleteRoom(ctx context.Context, id uint) error
}

type Storage interface {
	RoomStore
	MessageStore

	CreateUser(ctx context.Context, user *models.User) error

	SaveVerificationCode(ctx context.Context, contact, code string, ttl time.Duration) error
	ConsumeVerificationCode(ctx context.Context, contact, code string) (bool, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor. rdb may be nil for tools that never touch
// verification codes.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Migrate creates or updates the tables of every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.ChatMessage{},
	)
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

// CreateUser зберігає нового користувача.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("ERROR: Failed to create user %q: %v", user.Nickname, err)
		return translate(err)
	}
	log.Printf("INFO: New user %d saved (nickname: %s).", user.ID, user.Nickname)
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Service) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
