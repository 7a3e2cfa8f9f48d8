package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"StockAnalyzer/internal/model"
)

func setupRedis(t *testing.T) *RedisCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	cache, err := NewRedisCache(ctx, fmt.Sprintf("%s:%s", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache := setupRedis(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestRedisBackedFetcher(t *testing.T) {
	cache := setupRedis(t)
	m := &MockFetcher{Bars: []model.OHLCV{bar(1, 10), bar(2, 11)}}
	f := NewCachedFetcher(m, cache, time.Minute)

	for i := 0; i < 3; i++ {
		bars, err := f.FetchBars(context.Background(), "AAPL", "1y")
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.True(t, bars[0].Time.Equal(day(1)))
	}
	assert.Equal(t, 1, m.Calls)
}
