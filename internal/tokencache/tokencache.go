// Package tokencache stores short-lived forget-password tokens.
package tokencache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
)

// Redis keeps tokens in redis with SET EX.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}

// Get returns "" when key is missing or expired.
func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// NewRedisClient dials cfg.URL and pings it once.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

type entry struct {
	value   string
	expires time.Time
}

// Memory is the in-process fallback used when REDIS_URL is empty.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewMemory keeps entries for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (c *Memory) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry{value: value, expires: now.Add(c.ttl)}
	return nil
}

func (c *Memory) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
