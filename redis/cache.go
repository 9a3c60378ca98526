package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON encoded values in Redis. It implements movie.Cache.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New connects to the server at redisURL. A ttl of 0 keeps entries until
// they are evicted.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.SugaredLogger) (*Cache, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, ttl, logger), nil
}

func NewWithClient(client *goredis.Client, ttl time.Duration, logger *zap.SugaredLogger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Get decodes the value stored at key into dest. A missing key is reported
// as (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		c.logger.Warnw("cache get failed", "key", key, "error", err)
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warnw("cache entry is corrupt", "key", key, "error", err)
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warnw("cache set failed", "key", key, "error", err)
		return err
	}
	return nil
}
