package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL  = 5 * time.Minute
	indexPrefix = "cache:index:"
)

// Cache is a read-through JSON cache for list endpoints. Entries live at
// {prefix}:{requestURI}; every key written under a prefix is remembered in
// cache:index:{prefix} so Invalidate can drop them together.
type Cache struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	group    singleflight.Group
	failures atomic.Int64
	logger   *zap.Logger
}

func New(rdb redis.Cmdable, ttl time.Duration, logger ...*zap.Logger) *Cache {
	l := zap.L().Named("shared.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("shared.cache")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: l}
}

func Key(prefix, requestURI string) string {
	return prefix + ":" + requestURI
}

func IndexKey(prefix string) string {
	return indexPrefix + prefix
}

// Failures counts invalidations that could not be completed.
func (c *Cache) Failures() int64 {
	return c.failures.Load()
}

// GetOrLoad serves the cached value for requestURI, or calls load and
// caches its result. Concurrent misses for the same key share one load.
// Redis failures never fail the request; the loader result is returned.
func GetOrLoad[T any](ctx context.Context, c *Cache, prefix, requestURI string, load func(context.Context) (T, error)) (T, error) {
	key := Key(prefix, requestURI)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.logger.Warn("ignoring unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		c.store(ctx, prefix, key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) store(ctx context.Context, prefix, key string, val any) {
	payload, err := json.Marshal(val)
	if err != nil {
		c.logger.Warn("value not cacheable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.SAdd(ctx, IndexKey(prefix), key).Err(); err != nil {
		c.logger.Debug("cache index write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every entry cached under prefix. Failures are logged and
// counted, never returned.
func (c *Cache) Invalidate(ctx context.Context, prefix string) {
	idx := IndexKey(prefix)

	keys, err := c.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		c.fail(prefix, err)
		return
	}
	if err := c.rdb.Del(ctx, append(keys, idx)...).Err(); err != nil {
		c.fail(prefix, err)
	}
}

func (c *Cache) fail(prefix string, err error) {
	c.failures.Add(1)
	c.logger.Error("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
}
