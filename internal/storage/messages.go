package storage

import (
	"context"
	"log"

	"pairchat/backend/internal/models"
)

// SaveMessage зберігає повідомлення; msg.ID заповнює GORM.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %d: %v", msg.RoomID, err)
		return err
	}
	return nil
}

func (s *Service) GetMessage(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	if err := s.DB.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// UpdateMessage replaces the content of a message and returns the stored row.
func (s *Service) UpdateMessage(ctx context.Context, id uint, content string) (*models.ChatMessage, error) {
	msg, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.Content = content
	if err := s.DB.WithContext(ctx).Save(msg).Error; err != nil {
		log.Printf("ERROR: Failed to update message %d: %v", id, err)
		return nil, err
	}
	return msg, nil
}

func (s *Service) DeleteMessage(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.ChatMessage{}, id)
	if res.Error != nil {
		log.Printf("ERROR: Failed to delete message %d: %v", id, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetChatHistory отримує історію повідомлень кімнати в порядку створення.
// Порожня кімната дає порожній список, а не помилку.
func (s *Service) GetChatHistory(ctx context.Context, roomID uint) ([]models.ChatMessage, error) {
	history := []models.ChatMessage{}
	err := s.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Order("id asc").
		Find(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for room %d: %v", roomID, err)
		return nil, err
	}
	return history, nil
}
