package localstore

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StateKey(name string) string
}

// RedisStore keeps state under the sf:state: namespace without expiry.
type RedisStore struct {
	kv redisKV
}

func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{kv: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.kv.Get(ctx, s.kv.StateKey(key))
	if pkgredis.IsNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, s.kv.StateKey(key), value, 0); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, s.kv.StateKey(key))
	}
	if err := s.kv.Del(ctx, full...); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
