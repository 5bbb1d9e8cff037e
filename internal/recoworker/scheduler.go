package recoworker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/services"
)

// Generator is satisfied by services.RecommendationService.
type Generator interface {
	GenerateAll(ctx context.Context) (*services.BatchResult, error)
}

// Scheduler runs a generation batch for every user on a fixed interval.
type Scheduler struct {
	gen      Generator
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(gen Generator, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{gen: gen, interval: interval, log: log}
}

// Run generates once immediately and then on every tick until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("generate scheduler starting")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)
		select {
		case <-ctx.Done():
			s.log.Info().Msg("generate scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := s.gen.GenerateAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("generate batch failed")
		}
		return
	}
	persisted := 0
	for _, r := range res.Results {
		persisted += r.Persisted()
	}
	s.log.Info().
		Int("users", len(res.Results)+len(res.Errors)).
		Int("failed", len(res.Errors)).
		Int("persisted", persisted).
		Dur("took", time.Since(start)).
		Msg("generate batch finished")
}
