// Package recoworker runs the background recommendation worker: periodic
// generation for every user plus the expiry sweeper.
package recoworker

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/leaflove/care-service/internal/careservice"
	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/config"
	"github.com/leaflove/care-service/internal/factory"
	"github.com/leaflove/care-service/internal/logger"
	"github.com/leaflove/care-service/internal/sweeper"
)

// Run starts the worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("reco-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("store")
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	svc := careservice.NewServices(st, factory.NewWeatherProvider(ctx, cfg, log), cfg, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return NewScheduler(svc.Recommendations, cfg.GenerateInterval(), log).Run(gctx)
	})
	g.Go(func() error {
		return sweeper.NewWorker(st, clock.System{}, sweeper.Config{Interval: cfg.SweepInterval()}, log).Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("reco worker exit")
		return err
	}
	return nil
}
