package redis

import (
	"context"
	"errors"

	goredis "github.com/go-redis/redis/v8"
)

// ErrNotFound is returned by Client.Get for a missing key.
var ErrNotFound = errors.New("redis: key not found")

// Client is the subset of Redis the table store needs.
type Client interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// GoRedisClient implements Client on go-redis.
type GoRedisClient struct {
	client *goredis.Client
}

// NewClient connects lazily to the Redis server at addr.
func NewClient(addr string, db int) *GoRedisClient {
	return &GoRedisClient{client: goredis.NewClient(&goredis.Options{Addr: addr, DB: db})}
}

func (c *GoRedisClient) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, key, value, 0).Err()
}

func (c *GoRedisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (c *GoRedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *GoRedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *GoRedisClient) Close() error {
	return c.client.Close()
}
