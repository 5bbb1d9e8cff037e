package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflove/care-service/internal/model"
)

type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttl    time.Duration
	getErr error
	setErr error
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *fakeCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = val
	c.ttl = ttl
	return nil
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Current(_ context.Context, loc string) (*model.WeatherSnapshot, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &model.WeatherSnapshot{Location: loc, Temperature: 21, Humidity: 40}, nil
}

func TestCachedProvider_MissThenHit(t *testing.T) {
	next := &countingProvider{}
	cache := newFakeCache()
	p := NewCachedProvider(next, cache, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		snap, err := p.Current(context.Background(), " Lisbon ")
		require.NoError(t, err)
		assert.InDelta(t, 21, snap.Temperature, 0.001)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Minute, cache.ttl)
	_, ok := cache.data["weather:v1:lisbon"]
	assert.True(t, ok)
}

func TestCachedProvider_CacheFailuresFallThrough(t *testing.T) {
	next := &countingProvider{}
	cache := newFakeCache()
	cache.getErr = errors.New("connection reset")
	cache.setErr = errors.New("read only replica")
	p := NewCachedProvider(next, cache, 0, zerolog.Nop())

	_, err := p.Current(context.Background(), "Lisbon")
	require.NoError(t, err)
	_, err = p.Current(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedProvider_UpstreamErrorIsNotCached(t *testing.T) {
	next := &countingProvider{err: model.UpstreamUnavailableError{Upstream: "weather", Err: errors.New("503")}}
	cache := newFakeCache()
	p := NewCachedProvider(next, cache, time.Minute, zerolog.Nop())

	_, err := p.Current(context.Background(), "Lisbon")
	assert.True(t, model.IsUpstreamUnavailable(err))
	assert.Empty(t, cache.data)
}

func TestRedisCache_UnreachableFallsThrough(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	next := &countingProvider{}
	p := NewCachedProvider(next, NewRedisCacheWithClient(rdb), time.Minute, zerolog.Nop())

	snap, err := p.Current(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", snap.Location)
	assert.Equal(t, 1, next.calls)

	_, err = NewRedisCache(context.Background(), "127.0.0.1:1", 0)
	assert.Error(t, err)
	_, err = NewRedisCache(context.Background(), "", 0)
	assert.Error(t, err)
}
