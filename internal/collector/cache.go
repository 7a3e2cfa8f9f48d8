package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"StockAnalyzer/internal/model"
)

// Cache stores raw fetch results keyed by symbol and period.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// RedisCache implements Cache on a Redis server.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to addr and pings the server.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: "bars:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

// CachedFetcher serves bars from a Cache and falls back to the wrapped
// Fetcher on a miss. Cache failures are logged and never fail a fetch.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration
	Log     *slog.Logger
}

// NewCachedFetcher wraps f with cache-aside reads through c.
func NewCachedFetcher(f Fetcher, c Cache, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Fetcher: f, Cache: c, TTL: ttl, Log: slog.Default()}
}

func (f *CachedFetcher) Name() string { return f.Fetcher.Name() + "+cache" }

func (f *CachedFetcher) FetchBars(ctx context.Context, symbol, period string) ([]model.OHLCV, error) {
	key := f.Fetcher.Name() + ":" + symbol + ":" + period
	if data, ok, err := f.Cache.Get(ctx, key); err != nil {
		f.Log.Warn("bar cache read failed", "key", key, "error", err)
	} else if ok {
		var bars []model.OHLCV
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
		f.Log.Warn("bar cache entry corrupt", "key", key)
	}

	bars, err := f.Fetcher.FetchBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(bars); err == nil {
		if err := f.Cache.Set(ctx, key, data, f.TTL); err != nil {
			f.Log.Warn("bar cache write failed", "key", key, "error", err)
		}
	}
	return bars, nil
}
