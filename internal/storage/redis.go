package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auction_web/internal/config"
)

// RedisDB 包裝 redis 客戶端，房間鍵值儲存庫建構在其上
type RedisDB struct {
	*redis.Client
}

func NewRedisDB(cfg config.RedisConfig) (*RedisDB, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 建立時先測試連線
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisDB{Client: rdb}, nil
}
