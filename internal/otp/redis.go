package otp

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:"

// RedisStore keeps codes in Redis with a native TTL, so every API instance
// sees the same codes.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) key(email string) string {
	return redisKeyPrefix + normalizeEmail(email)
}

func (s *RedisStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(email), code, ttl).Err()
}

// Verify deletes the code on a match. Only the caller whose DEL removed the
// key wins, so a code cannot be redeemed twice concurrently.
func (s *RedisStore) Verify(ctx context.Context, email, code string) (bool, error) {
	key := s.key(email)
	stored, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !codesEqual(stored, code) {
		return false, nil
	}
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}
