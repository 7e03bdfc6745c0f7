package service

import (
	"context"
	"fmt"

	"github.com/okian/jumper/internal/adapters/repository"
	"github.com/okian/jumper/internal/adapters/repository/postgres"
	"github.com/okian/jumper/internal/adapters/repository/sqlite"
	"github.com/okian/jumper/internal/config"
	"github.com/okian/jumper/pkg/logger"
)

// OpenStore builds the ScoreStore named by cfg.Backend.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.ScoreStore, error) {
	const op = "service.OpenStore"
	log := logger.Get().Named("backend")

	switch cfg.Backend {
	case config.BackendMemory, "":
		log.Info(ctx, "using in-memory score cache", logger.Int("maxEntries", cfg.CacheMaxEntries))
		return repository.NewBoundedScoreCache(repository.WithMaxEntries(cfg.CacheMaxEntries)), nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, postgres.Config{
			URL:      cfg.PostgresURL(),
			MinConns: int32(cfg.DBMinConns),
			MaxConns: int32(cfg.DBMaxConns),
		}, postgres.WithLogger(logger.Named("postgres")))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return store, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, sqlite.WithLogger(logger.Named("sqlite")))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%s: %w: unknown backend %q", op, config.ErrInvalidConfig, cfg.Backend)
	}
}
