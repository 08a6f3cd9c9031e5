package idempotency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

const maxKeyLength = 128

var ErrKeyTooLong = errors.New("idempotency key too long")

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

func Validate(key string) error {
	if len(key) > maxKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// Store remembers the result of a completed request per (scope, key).
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get returns the stored result and whether one exists.
func (s *Store) Get(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, storeKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

// Save keeps the first result written for (scope, key).
func (s *Store) Save(ctx context.Context, scope, key, result string) error {
	if err := s.client.SetNX(ctx, storeKey(scope, key), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storeKey(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}
