// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package redis implements auth.SessionStore on Redis. Keys expire with
// the session TTL, so no pruning is needed. Each user's session keys are
// also indexed in a set so they can be revoked together.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/auth"
)

const (
	keyPrefix      = "session:"
	userPrefix     = "user_sessions:"
	defaultTimeout = 5 * time.Second
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
// A default timeout is applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").
			With("addr", cfg.Addr).
			Wrap(err)
	}
	return client, nil
}

// SessionStore implements auth.SessionStore using Redis strings.
// Key format: session:<key>, indexed by user in the set user_sessions:<id>.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Load retrieves the state stored under key.
func (s *SessionStore) Load(ctx context.Context, key string) (auth.SessionState, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOAD_FAILED").
			With("operation", "redis get").
			Wrap(err)
	}
	return auth.DecodeState(data)
}

// Save stores state under a fresh key with SET NX, so an existing key is
// never overwritten.
func (s *SessionStore) Save(ctx context.Context, state auth.SessionState, ttl time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}
	key, err := auth.GenerateSessionKey()
	if err != nil {
		return "", err
	}

	err = s.client.SetArgs(ctx, keyPrefix+key, data, redis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return "", oops.Code("SESSION_KEY_COLLISION").
			With("operation", "redis set nx").
			Errorf("session key already exists")
	}
	if err != nil {
		return "", oops.Code("SESSION_SAVE_FAILED").
			With("operation", "redis set nx").
			Wrap(err)
	}

	if err := s.index(ctx, state, key, ttl); err != nil {
		return "", err
	}
	return key, nil
}

func userKey(userID int64) string {
	return userPrefix + strconv.FormatInt(userID, 10)
}

// index records key in its user's set. The set lives at least as long as
// the longest-lived session it lists.
func (s *SessionStore) index(ctx context.Context, state auth.SessionState, key string, ttl time.Duration) error {
	userID, err := state.UserID()
	if err != nil {
		return nil
	}
	set := userKey(userID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, set, key)
		if ttl > 0 {
			pipe.ExpireNX(ctx, set, ttl)
			pipe.ExpireGT(ctx, set, ttl)
		}
		return nil
	})
	if err != nil {
		return oops.Code("SESSION_INDEX_FAILED").
			With("operation", "redis sadd").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

// Update overwrites an existing key with SET XX. A non-positive ttl keeps the
// key's current expiry.
func (s *SessionStore) Update(ctx context.Context, key string, state auth.SessionState, ttl time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}

	args := redis.SetArgs{Mode: "XX", TTL: ttl}
	if ttl <= 0 {
		args = redis.SetArgs{Mode: "XX", KeepTTL: true}
	}
	err = s.client.SetArgs(ctx, keyPrefix+key, data, args).Err()
	if errors.Is(err, redis.Nil) {
		return "", oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	if err != nil {
		return "", oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "redis set xx").
			Wrap(err)
	}

	if err := s.index(ctx, state, key, ttl); err != nil {
		return "", err
	}
	return key, nil
}

// Delete removes a session. A missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "redis del").
			Wrap(err)
	}
	return nil
}

// DeleteByUser removes every session indexed under userID, then the index.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	set := userKey(userID)
	members, err := s.client.SMembers(ctx, set).Result()
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "redis smembers").
			With("user_id", userID).
			Wrap(err)
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			keys := make([]string, len(members))
			for i, m := range members {
				keys[i] = keyPrefix + m
			}
			removed = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, set)
		return nil
	})
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "redis del").
			With("user_id", userID).
			Wrap(err)
	}
	if removed == nil {
		return 0, nil
	}
	return removed.Val(), nil
}

// DeleteExpired is a no-op: Redis expires keys itself.
func (s *SessionStore) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

var _ auth.SessionStore = (*SessionStore)(nil)
