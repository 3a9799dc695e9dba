//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer wraps a Redis instance and a client connected to it.
type RedisContainer struct {
	container *tcredis.RedisContainer
	client    *goredis.Client
}

// NewRedisContainer starts Redis with the given image tag ("7-alpine" when empty).
func NewRedisContainer(ctx context.Context, imageTag string) (*RedisContainer, error) {
	if imageTag == "" {
		imageTag = "7-alpine"
	}

	redisContainer, err := tcredis.Run(ctx, "redis:"+imageTag)
	if err != nil {
		return nil, fmt.Errorf("failed to start Redis container: %w", err)
	}

	uri, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		_ = redisContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	opts, err := goredis.ParseURL(uri)
	if err != nil {
		_ = redisContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = redisContainer.Terminate(context.Background())
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisContainer{container: redisContainer, client: client}, nil
}

// GetClient returns the shared client. Tests must not close it.
func (c *RedisContainer) GetClient(t *testing.T) *goredis.Client {
	t.Helper()
	if c.client == nil {
		t.Fatal("redis client is nil")
	}
	return c.client
}

// Flush removes every key.
func (c *RedisContainer) Flush(ctx context.Context) error {
	return c.client.FlushAll(ctx).Err()
}

// Terminate closes the client and removes the container.
func (c *RedisContainer) Terminate(ctx context.Context) error {
	_ = c.client.Close()
	if c.container == nil {
		return nil
	}
	if err := c.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}
