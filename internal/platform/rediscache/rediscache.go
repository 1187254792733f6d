// Package rediscache is a small JSON read-through cache on Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Addr:     envutil.String("REDIS_ADDR", ""),
		Password: envutil.String("REDIS_PASSWORD", ""),
		DB:       envutil.Int("REDIS_DB", 0),
		Prefix:   envutil.String("REDIS_KEY_PREFIX", "tutor"),
		TTL:      envutil.Duration("ROLLUP_CACHE_TTL_SECONDS", 10*time.Minute),
	}
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

type Cache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Connect dials Redis and pings it once.
func Connect(ctx context.Context, log *logger.Logger, cfg Config) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("Redis cache connected", "addr", cfg.Addr, "db", cfg.DB)
	return New(log, rdb, cfg.Prefix, cfg.TTL), nil
}

// New wraps an existing client.
func New(log *logger.Logger, rdb goredis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{log: log.With("service", "RedisCache"), rdb: rdb, prefix: strings.Trim(prefix, ":"), ttl: ttl}
}

func (c *Cache) Client() goredis.UniversalClient {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *Cache) Key(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if c.prefix != "" {
		all = append(all, c.prefix)
	}
	all = append(all, parts...)
	return strings.Join(all, ":")
}

// Get decodes the cached value into dst. A miss returns (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is treated as a miss and dropped.
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetNX stores v only if key does not exist yet.
func (c *Cache) SetNX(ctx context.Context, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode cache value: %w", err)
	}
	ok, err := c.rdb.SetNX(ctx, key, raw, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
