package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/health"
	"github.com/leaflove/care-service/internal/model"
)

// NewStoreHealthChecker monitors store health. Stores implementing
// health.HealthPinger are pinged directly; others are probed with a user lookup
// where ErrNotFound counts as healthy.
func NewStoreHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker("store", pingerFor(s), log, probeTimeout)
}

type lookupPinger struct{ s Store }

func (p lookupPinger) HealthPing(ctx context.Context) error {
	if _, err := p.s.Users().Get(ctx, "__health_check__"); err != nil && !model.IsNotFoundError(err) {
		return err
	}
	return nil
}

func pingerFor(s Store) health.HealthPinger {
	if p, ok := s.(health.HealthPinger); ok {
		return p
	}
	return lookupPinger{s: s}
}
