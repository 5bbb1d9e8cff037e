// Package sweeper periodically moves recommendations past their expiry into the
// expired status.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/store"
)

// Config controls polling cadence.
type Config struct {
	Interval time.Duration // poll interval
}

// Worker expires stale AutoRecommendations.
type Worker struct {
	store store.Store
	clock clock.Clock
	log   zerolog.Logger
	cfg   Config
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, clk clock.Clock, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Worker{store: s, clock: clk, log: log, cfg: cfg}
}

// Run sweeps once immediately and then on every tick until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.cfg.Interval).Msg("expiry sweeper starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.processOnce(ctx); err != nil && ctx.Err() == nil {
			// Log and continue; the next tick retries
			w.log.Error().Err(err).Msg("expiry sweep")
		}
		select {
		case <-ctx.Done():
			w.log.Info().Msg("expiry sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) (int, error) {
	n, err := w.store.AutoRecommendations().ExpireBefore(ctx, w.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.log.Info().Int("expired", n).Msg("expired recommendations")
	}
	return n, nil
}
