package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackyeh168/gym_crm/src/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient 建立目錄快取用的 Redis 連線
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Ping 檢查 Redis 連線
func Ping(ctx context.Context, client redis.Cmdable) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
