package collector

import (
	"context"
	"fmt"
	"log/slog"

	"StockAnalyzer/internal/config"
)

// NewFetcherFromConfig builds the configured provider. When cache.redis_addr
// is set the provider is wrapped in a Redis cache; an unreachable Redis is
// logged and skipped. The returned func releases the cache connection.
func NewFetcherFromConfig(ctx context.Context, cfg *config.Config) (Fetcher, func() error, error) {
	var f Fetcher
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo", "":
		f = NewYahooFetcher(ds.Proxy)
	case "rest":
		f = NewRESTFetcher(ds.BaseURL, ds.APIKey, ds.Proxy)
	case "mock":
		f = &MockFetcher{Price: 150}
	default:
		return nil, nil, fmt.Errorf("%w: unknown data_source.provider %q", config.ErrInvalidConfig, ds.Provider)
	}

	noop := func() error { return nil }
	if cfg.Cache.RedisAddr == "" {
		return f, noop, nil
	}
	rc, err := NewRedisCache(ctx, cfg.Cache.RedisAddr)
	if err != nil {
		slog.Warn("redis cache unavailable, fetching uncached", "addr", cfg.Cache.RedisAddr, "error", err)
		return f, noop, nil
	}
	return NewCachedFetcher(f, rc, cfg.Cache.TTL), rc.Close, nil
}
