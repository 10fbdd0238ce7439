// AngelaMos | 2026
// revocation.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocations keeps revoked token ids until the token would have
// expired anyway.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) Revoke(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, r.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (r *RedisRevocations) IsRevoked(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := r.client.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (r *RedisRevocations) key(jti string) string {
	return r.prefix + "blacklist:" + jti
}
