// Package repository provides the optional PostgreSQL backend: a pooled
// connection wrapper, card catalog persistence and the match archive.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pokefree/ptcg-sim-go/internal/config"
)

// DB wraps a pgx connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to PostgreSQL and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to database",
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns),
	)
	return &DB{Pool: pool, logger: logger}, nil
}

// Ping verifies the pool is still healthy.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats returns pool statistics for logging and health endpoints.
func (db *DB) Stats() map[string]any {
	s := db.Pool.Stat()
	return map[string]any{
		"total_conns":    s.TotalConns(),
		"idle_conns":     s.IdleConns(),
		"acquired_conns": s.AcquiredConns(),
		"max_conns":      s.MaxConns(),
	}
}

// Migrate creates the schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	db.logger.Info("database schema up to date")
	return nil
}

// Close releases the pool.
func (db *DB) Close() {
	db.Pool.Close()
	db.logger.Info("database connection closed")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cards (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		set_code    TEXT NOT NULL,
		number      TEXT NOT NULL,
		supertype   TEXT NOT NULL,
		definition  JSONB NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_name ON cards (name)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_set ON cards (set_code)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id          TEXT PRIMARY KEY,
		seed        BIGINT NOT NULL,
		player_one  TEXT NOT NULL,
		player_two  TEXT NOT NULL,
		winner      TEXT,
		is_draw     BOOLEAN NOT NULL DEFAULT FALSE,
		turns       INT NOT NULL,
		actions     INT NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS match_events (
		match_id TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		seq      INT NOT NULL,
		turn     INT NOT NULL,
		type     TEXT NOT NULL,
		player   SMALLINT NOT NULL,
		message  TEXT NOT NULL,
		data     JSONB,
		PRIMARY KEY (match_id, seq)
	)`,
}
