package repository

import (
	"context"
	"fmt"
	"time"

	"leoride/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisRoleCache stores principal roles in Redis with a per-entry TTL.
type RedisRoleCache struct {
	client *redis.Client
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisRoleCache(client *redis.Client) *RedisRoleCache {
	return &RedisRoleCache{client: client}
}

func roleKey(userID string) string {
	return fmt.Sprintf("role:%s", userID)
}

// GetRole returns the cached role, or empty string on a miss.
func (r *RedisRoleCache) GetRole(ctx context.Context, userID string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, roleKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get role from redis: %w", err)
	}
	return val, nil
}

func (r *RedisRoleCache) SetRole(ctx context.Context, userID string, role string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, roleKey(userID), role, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set role in redis: %w", err)
	}
	return nil
}

func (r *RedisRoleCache) InvalidateRole(ctx context.Context, userID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, roleKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete role from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
