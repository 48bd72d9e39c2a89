package database

import (
	"context"
	"fmt"
	"time"

	"annies-bakery/internal/config"
	"annies-bakery/internal/docstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// OpenStore opens the document store selected by cfg.Store.Driver. The
// returned close function releases the database pool, if one was opened.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...docstore.Option) (*docstore.Store, func(), error) {
	opts = append(opts, docstore.WithStrict(cfg.Store.Strict))

	switch cfg.Store.Driver {
	case "postgres":
		pool, err := NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}

		backend := docstore.NewPostgresBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info().Str("driver", "postgres").Msg("document store opened")
		return docstore.New(backend, logger, opts...), pool.Close, nil

	default:
		logger.Info().
			Str("driver", "file").
			Str("data_dir", cfg.Store.DataDir).
			Bool("strict", cfg.Store.Strict).
			Msg("document store opened")
		return docstore.New(docstore.NewFileBackend(cfg.Store.DataDir), logger, opts...), func() {}, nil
	}
}
