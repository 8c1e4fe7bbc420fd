// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseDSN   string `env:"DATABASE_DSN,required=true"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6380"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	// Topics of the two independent relays.
	ChatRoomsTopic    string        `env:"CHAT_ROOMS_TOPIC,default=chat:rooms"`
	ConfirmationTopic string        `env:"CONFIRMATION_TOPIC,default=chat:confirmation"`
	PublishTimeout    time.Duration `env:"PUBLISH_TIMEOUT,default=5s"`

	JWTSecret string        `env:"JWT_SECRET,required=true"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=72h"`
	HTTPAddr  string        `env:"HTTP_ADDR,default=:8080"`

	SendBufferSize      int           `env:"SEND_BUFFER_SIZE,default=256"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL,default=10m"`

	// Optional: forward verification codes to a Telegram chat.
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramOpsChatID int64  `env:"TELEGRAM_OPS_CHAT_ID"`
}

// Load reads an optional .env file and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants env tags cannot express.
func (c *Config) Validate() error {
	if c.ChatRoomsTopic == c.ConfirmationTopic {
		return fmt.Errorf("CHAT_ROOMS_TOPIC and CONFIRMATION_TOPIC must differ, both are %q", c.ChatRoomsTopic)
	}
	if c.TelegramBotToken != "" && c.TelegramOpsChatID == 0 {
		return fmt.Errorf("TELEGRAM_OPS_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.SendBufferSize <= 0 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", c.SendBufferSize)
	}
	return nil
}
