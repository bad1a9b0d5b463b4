// Package database constructs the destination-store connections: a pgx pool
// for bulk COPY and DDL, and a bun DB over the same pool for model-based SQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/cartafold/geoimport/internal/config"
	"github.com/cartafold/geoimport/pkg/logger"
)

// DB bundles the two views of the single destination connection. The
// pipeline uses it strictly sequentially; every phase commits before the
// next begins.
type DB struct {
	Pool *pgxpool.Pool
	Bun  *bun.DB
}

// Connect opens the pool, verifies connectivity, and wraps it with bun.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*DB, error) {
	log = log.With(logger.Scope("database"))

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Database.QueryDebug {
		bunDB.AddQueryHook(&queryLoggingHook{log: log})
	}

	log.Info("database connected",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	return &DB{Pool: pool, Bun: bunDB}, nil
}

// Close releases both views of the connection.
func (d *DB) Close() error {
	err := d.Bun.Close()
	d.Pool.Close()
	return err
}

// queryLoggingHook implements bun.QueryHook for query logging.
type queryLoggingHook struct {
	log *slog.Logger
}

func (h *queryLoggingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLoggingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	if event.Err != nil && event.Err != sql.ErrNoRows {
		h.log.Error("query error",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
			logger.Error(event.Err),
		)
		return
	}

	if duration > 3*time.Second {
		h.log.Warn("slow query",
			slog.String("query", event.Query),
			slog.Duration("duration", duration),
		)
		return
	}

	h.log.Debug("query",
		slog.String("query", event.Query),
		slog.Duration("duration", duration),
	)
}
