package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCodeTTL is how long a verification code stays redeemable.
const DefaultCodeTTL = 10 * time.Minute

func verificationKey(contact string) string {
	return "verification:" + contact
}

// SaveVerificationCode stores the code for contact, replacing any older one.
// A non-positive ttl falls back to DefaultCodeTTL.
func (s *Service) SaveVerificationCode(ctx context.Context, contact, code string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return s.Redis.Set(ctx, verificationKey(contact), code, ttl).Err()
}

// ConsumeVerificationCode перевіряє код і видаляє його при збігу, тому код одноразовий.
func (s *Service) ConsumeVerificationCode(ctx context.Context, contact, code string) (bool, error) {
	key := verificationKey(contact)
	stored, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	// Del returns 0 when a concurrent redeemer got there first.
	n, err := s.Redis.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
