// Package database manages the PostgreSQL pool that backs the Climatica
// repositories: connection with retry, schema migration, health checks and
// error classification.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Config holds pool settings. DSN is a postgres:// URL or key/value string.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	// ConnectTimeout bounds the total time spent retrying the initial connection.
	ConnectTimeout time.Duration
}

// ErrEmptyDSN is returned when no connection string is configured.
var ErrEmptyDSN = errors.New("database: empty connection string")

func (c Config) poolConfig() (*pgxpool.Config, error) {
	if c.DSN == "" {
		return nil, ErrEmptyDSN
	}
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	return pc, nil
}

// Connect opens a pool and pings it once.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}
	return open(ctx, pc)
}

func open(ctx context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// ConnectWithRetry opens the pool with exponential backoff until it
// succeeds, cfg.ConnectTimeout elapses, or ctx is cancelled. A malformed
// connection string fails immediately.
func ConnectWithRetry(ctx context.Context, cfg Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = cfg.ConnectTimeout

	attempt := 0
	return backoff.RetryWithData(func() (*pgxpool.Pool, error) {
		attempt++
		pool, err := open(ctx, pc.Copy())
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("host", pc.ConnConfig.Host).
				Msg("database not reachable, retrying")
		}
		return pool, err
	}, backoff.WithContext(bo, ctx))
}
