package cache

import (
	"context"
	"fmt"

	"github.com/eaglebank/user-crud/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client is the shared Redis connection behind the view cache and the
// event publisher.
type Client struct {
	*redis.Client
}

func clientOptions(cfg config.Redis) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// NewClient connects to Redis and fails unless the server answers a PING
// within the dial timeout.
func NewClient(ctx context.Context, cfg config.Redis) (*Client, error) {
	rdb := redis.NewClient(clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Client{Client: rdb}, nil
}
