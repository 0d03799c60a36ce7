package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "sess:"

// RedisDirectory maps opaque session tokens to user ids. Entries expire after ttl.
type RedisDirectory struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisDirectory(rdb *goredis.Client, ttl time.Duration) *RedisDirectory {
	return &RedisDirectory{rdb: rdb, ttl: ttl}
}

func key(token string) string {
	return keyPrefix + token
}

func (d *RedisDirectory) TTL() time.Duration {
	return d.ttl
}

// Create issues a new token for userID.
func (d *RedisDirectory) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	if err := d.rdb.Set(ctx, key(token), strconv.FormatUint(uint64(userID), 10), d.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// Resolve returns the user behind token. ok is false for unknown or expired tokens.
func (d *RedisDirectory) Resolve(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	raw, err := d.rdb.Get(ctx, key(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving session: %w", err)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false, nil
	}

	return uint(id), true, nil
}

func (d *RedisDirectory) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := d.rdb.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("invalidating session: %w", err)
	}
	return nil
}
