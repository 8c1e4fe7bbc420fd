// Package storagetest builds throwaway databases and Redis servers for tests.
package storagetest

import (
	"path/filepath"
	"testing"

	"pairchat/backend/internal/models"
	"pairchat/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir. A single connection
// serialises statements, while goroutines can still interleave between them.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pairchat.db")
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

// NewRedis starts an in-memory Redis server and a client for it.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// NewService returns a storage service over a fresh database and Redis.
func NewService(t testing.TB) *storage.Service {
	t.Helper()

	_, rdb := NewRedis(t)
	return storage.NewStorageService(NewDB(t), rdb)
}

// CreateUsers registers one user per nickname, in order.
func CreateUsers(t testing.TB, s *storage.Service, nicknames ...string) []models.User {
	t.Helper()

	users := make([]models.User, 0, len(nicknames))
	for _, nickname := range nicknames {
		user := &models.User{Nickname: nickname}
		require.NoError(t, s.CreateUser(t.Context(), user))
		users = append(users, *user)
	}
	return users
}
