package weather

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/model"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-oriented TTL cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// RedisCache stores entries in Redis.
type RedisCache struct {
	rdb *goredis.Client
}

// NewRedisCache connects to addr and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr string, db int) (*RedisCache, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return &RedisCache{rdb: rdb}, nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(rdb *goredis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, val, ttl).Err()
}

// HealthPing implements health.HealthPinger.
func (c *RedisCache) HealthPing(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

// Close releases the connection pool.
func (c *RedisCache) Close() error { return c.rdb.Close() }

// CachedProvider serves snapshots from a Cache and falls through to the wrapped
// provider on a miss. Cache failures are logged and never fail a lookup.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedProvider wraps next. ttl defaults to 10 minutes.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, log: log.With().Str("component", "weather_cache").Logger()}
}

func cacheKey(location string) string {
	return "weather:v1:" + strings.ToLower(strings.TrimSpace(location))
}

func (p *CachedProvider) Current(ctx context.Context, location string) (*model.WeatherSnapshot, error) {
	key := cacheKey(location)
	raw, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var snap model.WeatherSnapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			return &snap, nil
		}
		p.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, ErrCacheMiss):
		p.log.Warn().Err(err).Str("key", key).Msg("weather cache read failed")
	}

	snap, err := p.next.Current(ctx, location)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(snap); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			p.log.Warn().Err(err).Str("key", key).Msg("weather cache write failed")
		}
	}
	return snap, nil
}

// HealthPing delegates to the wrapped provider when it can be pinged.
func (p *CachedProvider) HealthPing(ctx context.Context) error {
	if hp, ok := p.next.(interface{ HealthPing(context.Context) error }); ok {
		return hp.HealthPing(ctx)
	}
	return nil
}
