package db

import (
	"context"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the pool, pings it and brings the schema up to date.
// Any failure is fatal: the service cannot run without its ledger.
func Connect(ctx context.Context, dsn string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("failed to parse database url", "error", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	err = migrations.Apply(ctx, pool, func(name string) {
		logger.Debug("migration applied", "file", name)
	})
	if err != nil {
		logger.Fatal("failed to apply migrations", "error", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return pool
}
