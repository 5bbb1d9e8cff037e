// Package factory builds the storage and weather adapters selected by configuration.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/leaflove/care-service/internal/config"
	storepkg "github.com/leaflove/care-service/internal/store"
	"github.com/leaflove/care-service/internal/store/memstore"
	storepg "github.com/leaflove/care-service/internal/store/postgres"
	"github.com/leaflove/care-service/internal/store/sqlite"
	"github.com/leaflove/care-service/internal/store/sqlstore"
)

// NewStore returns the store.Store for cfg.DBDriver. SQL backends have their
// schema applied before returning, bounded by the bootstrap timeout.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	bootCtx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
	defer cancel()

	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.Prefix)
		}
		// Open connection synchronously since health checks need it immediately
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(bootCtx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store schema ready")
		return storepg.NewWithDB(db), nil
	case "sqlite":
		st, err := sqlite.OpenStore(bootCtx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store schema ready")
		return st, nil
	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
