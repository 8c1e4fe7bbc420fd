package storage

import (
	"context"
	"log"

	"pairchat/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (l RoomLoad) apply(q *gorm.DB) *gorm.DB {
	if l.Members {
		q = q.Preload("Users", func(db *gorm.DB) *gorm.DB { return db.Order("users.id asc") })
	}
	if l.Messages {
		q = q.Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc").Order("id asc")
		})
	}
	return q
}

// CreateRoom вставляє кімнату разом із членством. Дублікат пари повертає ErrDuplicate.
func (s *Service) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		log.Printf("WARN: Failed to create room %q: %v", room.PairKey, err)
		return translate(err)
	}
	return nil
}

// FindRoomByPair looks a room up by its unordered member pair.
func (s *Service) FindRoomByPair(ctx context.Context, a, b uint, load RoomLoad) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := load.apply(s.DB.WithContext(ctx)).
		Where("pair_key = ?", models.PairKey(a, b)).
		First(&room).Error
	if err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *Service) GetRoomByID(ctx context.Context, id uint, load RoomLoad) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := load.apply(s.DB.WithContext(ctx)).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// ListRoomsForUser повертає всі кімнати, учасником яких є userID, у порядку створення.
func (s *Service) ListRoomsForUser(ctx context.Context, userID uint, load RoomLoad) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := load.apply(s.DB.WithContext(ctx)).
		Select("chat_rooms.*").
		Joins("JOIN room_members ON room_members.chat_room_id = chat_rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("chat_rooms.id asc").
		Find(&rooms).Error
	if err != nil {
		log.Printf("ERROR: Failed to list rooms for user %d: %v", userID, err)
		return nil, err
	}
	return rooms, nil
}

func (s *Service) SetRoomActive(ctx context.Context, id uint, active bool) error {
	res := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// lockRoom loads the room row with FOR UPDATE so membership changes on the
// same room run one after another.
func lockRoom(tx *gorm.DB, roomID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// AddRoomMembers (re)joins users to an existing room. Users already in the
// room are left as they are.
func (s *Service) AddRoomMembers(ctx context.Context, roomID uint, users ...models.User) error {
	if len(users) == 0 {
		return nil
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		return tx.Model(room).Association("Users").Append(users)
	})
	if err != nil {
		log.Printf("WARN: Failed to add members to room %d: %v", roomID, err)
		return err
	}
	return nil
}

// RemoveRoomMember drops userID from the room and reports how many members
// remain. When nobody is left the room and its messages are deleted in the
// same transaction.
func (s *Service) RemoveRoomMember(ctx context.Context, roomID, userID uint) (int64, error) {
	var remaining int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := tx.Model(room).Association("Users").Delete(&models.User{ID: userID}); err != nil {
			return err
		}
		err = tx.Table("room_members").
			Where("chat_room_id = ?", roomID).
			Count(&remaining).Error
		if err != nil || remaining > 0 {
			return err
		}
		return deleteRoom(tx, roomID)
	})
	if err != nil {
		log.Printf("ERROR: Failed to remove user %d from room %d: %v", userID, roomID, err)
		return 0, err
	}
	return remaining, nil
}

// DeleteRoom hard-deletes a room, its membership rows and its messages.
func (s *Service) DeleteRoom(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRoom(tx, id)
	})
}

func deleteRoom(tx *gorm.DB, id uint) error {
	if err := tx.Where("room_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.ChatRoom{ID: id}).Association("Users").Clear(); err != nil {
		return err
	}
	res := tx.Delete(&models.ChatRoom{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
