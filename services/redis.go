package services

import (
	"context"
	"fmt"

	"github.com/huyvu-developer/chat-app-BE/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, conf config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr(),
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
