// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package store provides the PostgreSQL connection pool, schema migrations
// and shared helpers for the repository adapters.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig configures Open.
type PoolConfig struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration

	// ConnectRetries is the number of extra ping attempts after the first.
	ConnectRetries uint64

	// RetryBackoff is the initial exponential backoff between attempts.
	RetryBackoff time.Duration

	Logger *slog.Logger
}

// Open creates a pgx pool and waits until the database answers a ping,
// retrying with exponential backoff.
func Open(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "parse database url").
			Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_POOL_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	attempt := 0
	b := retry.WithCappedDuration(10*time.Second, retry.NewExponential(backoff))
	err = retry.Do(ctx, retry.WithMaxRetries(cfg.ConnectRetries, b), func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	logger.InfoContext(ctx, "database connected",
		"max_conns", poolCfg.MaxConns,
		"attempts", attempt)
	return pool, nil
}
