package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairchat/backend/internal/api/handler"
	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/config"
	"pairchat/backend/internal/localization"
	"pairchat/backend/internal/relay"
	"pairchat/backend/internal/storage"
	"pairchat/backend/internal/verification"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Міграції
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func codeSender(cfg *config.Config) verification.Sender {
	if cfg.TelegramBotToken == "" {
		return verification.LogSender{}
	}
	sender, err := verification.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramOpsChatID)
	if err != nil {
		log.Printf("WARN: Telegram sender unavailable, logging codes instead: %v", err)
		return verification.LogSender{}
	}
	return sender
}

func main() {
	log.Println("Starting pairchat backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(ctx, cfg)
	defer rdb.Close()
	s := storage.NewStorageService(db, rdb)

	localizer, err := localization.NewDefaultLocalizer()
	if err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	// 2. Два незалежні релеї: події кімнат і коди підтвердження.
	roomRelay := relay.New(rdb, cfg.ChatRoomsTopic, cfg.PublishTimeout)
	confirmationRelay := relay.New(rdb, cfg.ConfirmationTopic, cfg.PublishTimeout)

	hub := chathub.NewManagerService()
	directory := chathub.NewDirectory(s)

	// 3. Запуск основних Goroutines
	go hub.Run(ctx)
	if err := hub.StartPubSubListener(ctx, roomRelay); err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", roomRelay.Topic(), err)
	}

	worker := &verification.Worker{
		Consumer: confirmationRelay,
		Codes:    s,
		Sender:   codeSender(cfg),
		TTL:      cfg.VerificationCodeTTL,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ERROR: Verification worker stopped: %v", err)
		}
	}()

	// 4. Налаштування Gin та роутингу
	r := gin.Default()
	h := &handler.Handler{
		Ctx:            ctx,
		Hub:            hub,
		Directory:      directory,
		Store:          s,
		Relay:          roomRelay,
		Verification:   verification.NewService(confirmationRelay, s),
		Localizer:      localizer,
		JWTSecret:      []byte(cfg.JWTSecret),
		TokenTTL:       cfg.TokenTTL,
		SendBufferSize: cfg.SendBufferSize,
	}
	h.Routes(r)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	log.Printf("Listening on %s", cfg.HTTPAddr)

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP shutdown: %v", err)
	}
}
