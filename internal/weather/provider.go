// Package weather fetches current conditions and short-range forecasts for a location.
package weather

import (
	"context"

	"github.com/leaflove/care-service/internal/model"
)

// Provider returns the current conditions for location, with a forecast when the
// upstream offers one. An empty location means the provider's default location.
// Failures are returned as model.UpstreamUnavailableError.
type Provider interface {
	Current(ctx context.Context, location string) (*model.WeatherSnapshot, error)
}

// Unavailable is the provider used when no weather upstream is configured.
type Unavailable struct{}

func (Unavailable) Current(context.Context, string) (*model.WeatherSnapshot, error) {
	return nil, model.UpstreamUnavailableError{Upstream: "weather", Err: errNotConfigured}
}

// HealthPing reports healthy; there is nothing to reach.
func (Unavailable) HealthPing(context.Context) error { return nil }
