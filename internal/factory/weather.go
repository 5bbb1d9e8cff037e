package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/config"
	"github.com/leaflove/care-service/internal/weather"
)

// NewWeatherProvider returns the configured weather upstream, wrapped in a Redis
// cache when REDIS_ADDR is set. An unreachable Redis is logged and the provider
// is returned uncached.
func NewWeatherProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) weather.Provider {
	var provider weather.Provider
	switch cfg.WeatherProvider {
	case "openweathermap":
		provider = weather.NewOpenWeatherMap(weather.Config{
			BaseURL:         cfg.WeatherBaseURL,
			APIKey:          cfg.WeatherAPIKey,
			DefaultLocation: cfg.WeatherDefaultLocation,
			Timeout:         cfg.WeatherTimeout(),
		}, log)
	default:
		log.Info().Str("provider", cfg.WeatherProvider).Msg("weather disabled; weather rules will report unavailable")
		return weather.Unavailable{}
	}

	if cfg.RedisAddr == "" {
		return provider
	}
	cache, err := weather.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("weather cache unavailable; continuing uncached")
		return provider
	}
	return weather.NewCachedProvider(provider, cache, cfg.WeatherCacheTTL(), log)
}
