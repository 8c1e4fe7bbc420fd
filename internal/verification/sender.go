package verification

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// LogSender writes codes to the server log. Meant for local development.
type LogSender struct{}

func (LogSender) SendCode(_ context.Context, contact, code string) error {
	log.Printf("INFO: Verification code for %s: %s", contact, code)
	return nil
}

// TelegramSender posts codes to an operators' Telegram chat.
type TelegramSender struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)
	return &TelegramSender{Bot: bot, ChatID: chatID}, nil
}

func (s *TelegramSender) SendCode(_ context.Context, contact, code string) error {
	msg := tgbotapi.NewMessage(s.ChatID, fmt.Sprintf("Verification code for %s: %s", contact, code))
	if _, err := s.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
