// Package redis wraps the go-redis client.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	redisopts "github.com/iranzithierry/cognova-backend/pkg/options/redis"
)

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, opts *redisopts.Options) (*goredis.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("redis options is nil")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolTimeout:  opts.PoolTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
