// Package careservice runs the care recommendation HTTP API.
package careservice

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/api"
	"github.com/leaflove/care-service/internal/clock"
	"github.com/leaflove/care-service/internal/config"
	"github.com/leaflove/care-service/internal/factory"
	"github.com/leaflove/care-service/internal/health"
	"github.com/leaflove/care-service/internal/keyedmutex"
	"github.com/leaflove/care-service/internal/logger"
	"github.com/leaflove/care-service/internal/services"
	"github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/weather"
)

// Run starts the care service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("care-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("weather_provider", cfg.WeatherProvider).
		Bool("weather_cache", cfg.RedisAddr != "").
		Msg("Care service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, wp, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st, wp)
	router := buildRouter(st, wp, cfg, log, svcHealth)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs the store and weather provider.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, weather.Provider, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, err
	}
	return st, factory.NewWeatherProvider(ctx, cfg, log), nil
}

// NewServices wires the service layer shared by the API server and the worker.
func NewServices(st store.Store, wp weather.Provider, cfg *config.Config, log zerolog.Logger) api.Services {
	clk := clock.System{}
	locks := keyedmutex.New()
	return api.Services{
		Recommendations: services.NewRecommendationService(st, wp, clk, locks, log, services.Options{
			Hemisphere:      cfg.Hemisphere,
			DefaultLocation: cfg.WeatherDefaultLocation,
			FeedLimit:       cfg.FeedDefaultLimit,
			Concurrency:     cfg.GenerateConcurrency,
			WeatherTimeout:  cfg.WeatherTimeout(),
		}),
		Reminders:    services.NewReminderService(st, clk, locks, log),
		Plants:       services.NewPlantService(st, clk),
		Supervisors:  services.NewSupervisorService(st, clk),
		Observations: services.NewObservationService(st, clk),
	}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, wp weather.Provider, cfg *config.Config, log zerolog.Logger, svcHealth *health.ServiceHealthChecker) *mux.Router {
	s := NewServices(st, wp, cfg, log)
	s.Health = svcHealth
	return api.NewRouter(s)
}

// startHealthCheckers starts component checkers and the service-level aggregator.
// Weather is advisory: an upstream outage degrades results but keeps the service up.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, wp weather.Provider) *health.ServiceHealthChecker {
	probeTimeout := cfg.HealthProbeTimeout()
	interval := cfg.HealthInterval()

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	if p, ok := wp.(health.HealthPinger); ok {
		wxChecker := health.NewPingChecker("weather", p, log, probeTimeout)
		go wxChecker.Start(ctx, interval)
		svcHealth.WithAdvisory(wxChecker)
	}
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// startupHealthTimeout is interval*2 with a minimum of 60 seconds.
func startupHealthTimeout(interval time.Duration) time.Duration {
	timeout := interval * 2
	if timeout < 60*time.Second {
		return 60 * time.Second
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeout := startupHealthTimeout(cfg.HealthInterval())
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
