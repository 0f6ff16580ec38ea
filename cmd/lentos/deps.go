// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/auth"
	authpg "github.com/lentos/lentos/internal/auth/postgres"
	authredis "github.com/lentos/lentos/internal/auth/redis"
	"github.com/lentos/lentos/internal/config"
	"github.com/lentos/lentos/internal/store"
	"github.com/lentos/lentos/internal/todo"
	todopg "github.com/lentos/lentos/internal/todo/postgres"
	"github.com/lentos/lentos/internal/user"
	userpg "github.com/lentos/lentos/internal/user/postgres"
)

// backend bundles the connections and services shared by commands.
type backend struct {
	pool     *pgxpool.Pool
	redis    *goredis.Client
	users    user.Repository
	todos    todo.Repository
	sessions auth.SessionStore
	accounts *auth.Service
}

// openBackend connects to PostgreSQL (and Redis for the redis session
// backend) and wires the repositories into the account service.
// metrics may be nil.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics auth.Metrics) (*backend, error) {
	pool, err := store.Open(ctx, store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		ConnectRetries: cfg.Database.ConnectRetries,
		RetryBackoff:   500 * time.Millisecond,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	b := &backend{
		pool:  pool,
		users: userpg.NewUserRepository(pool),
		todos: todopg.NewTodoRepository(pool),
	}

	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := authredis.Connect(ctx, authredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
		b.redis = client
		b.sessions = authredis.NewSessionStore(client)
	default:
		b.sessions = authpg.NewSessionStore(pool)
	}

	b.accounts, err = auth.NewService(auth.ServiceConfig{
		Users:      b.users,
		Sessions:   b.sessions,
		Hasher:     auth.NewArgon2idHasher(),
		Logger:     logger,
		Metrics:    metrics,
		SessionTTL: cfg.Session.TTL,
	})
	if err != nil {
		b.Close()
		return nil, oops.Code("SERVICE_INIT_FAILED").Wrap(err)
	}
	return b, nil
}

// Ping reports whether the database answers.
func (b *backend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	if b.redis != nil {
		if err := b.redis.Ping(ctx).Err(); err != nil {
			return oops.Code("REDIS_PING_FAILED").Wrap(err)
		}
	}
	return nil
}

// Close releases every connection.
func (b *backend) Close() {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			slog.Debug("error closing redis client", "error", err)
		}
	}
	b.pool.Close()
}
