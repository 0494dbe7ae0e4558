package redisstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"geek-ludo/internal/repository"
)

// RedisPreferenceRepository 是 PreferenceRepository 接口的 Redis 实现，
// 所有偏好保存在同一个 Hash 中。
type RedisPreferenceRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisPreferenceRepository 创建 RedisPreferenceRepository 实例
func NewRedisPreferenceRepository(client *redis.Client, keyPrefix string) *RedisPreferenceRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisPreferenceRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "ludo:" // 默认前缀
	}
	return &RedisPreferenceRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisPreferenceRepository) prefsKey() string {
	return r.keyPrefix + "prefs"
}

// Get 实现 repository.PreferenceRepository
func (r *RedisPreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.HGet(ctx, r.prefsKey(), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrPreferenceNotFound
		}
		return "", fmt.Errorf("redis: get preference %s from %s: %w", key, r.prefsKey(), err)
	}
	return v, nil
}

// Set 实现 repository.PreferenceRepository
func (r *RedisPreferenceRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.prefsKey(), key, value).Err(); err != nil {
		return fmt.Errorf("redis: set preference %s in %s: %w", key, r.prefsKey(), err)
	}
	return nil
}
