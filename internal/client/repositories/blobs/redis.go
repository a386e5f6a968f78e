package blobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores values as plain Redis strings under a key prefix.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisRepository) key(key string) string {
	return r.prefix + key
}

func (r *RedisRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisRepository) SetItem(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set blob[%s]: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) RemoveItem(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove blob[%s]: %w", key, err)
	}
	return nil
}
