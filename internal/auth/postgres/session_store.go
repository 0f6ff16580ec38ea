// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package postgres implements auth.SessionStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/store"
)

// SessionStore implements auth.SessionStore using the sessions table.
// Expiry lives in the state blob, so ttl arguments are not stored.
type SessionStore struct {
	db  store.DBTX
	now func() time.Time
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db store.DBTX) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Load retrieves the state stored under key.
func (s *SessionStore) Load(ctx context.Context, key string) (auth.SessionState, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT state FROM sessions WHERE key = $1
	`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOAD_FAILED").
			With("operation", "select session").
			Wrap(err)
	}
	return auth.DecodeState(data)
}

// Save stores state under a fresh key. A key collision fails the insert.
func (s *SessionStore) Save(ctx context.Context, state auth.SessionState, _ time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}
	key, err := auth.GenerateSessionKey()
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (key, state) VALUES ($1, $2)
	`, key, data)
	if store.IsUniqueViolation(err) {
		return "", oops.Code("SESSION_KEY_COLLISION").
			With("operation", "insert session").
			Wrap(err)
	}
	if err != nil {
		return "", oops.Code("SESSION_SAVE_FAILED").
			With("operation", "insert session").
			Wrap(err)
	}
	return key, nil
}

// Update overwrites the state of an existing key.
func (s *SessionStore) Update(ctx context.Context, key string, state auth.SessionState, _ time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}

	result, err := s.db.Exec(ctx, `
		UPDATE sessions SET state = $2 WHERE key = $1
	`, key, data)
	if err != nil {
		return "", oops.Code("SESSION_UPDATE_FAILED").
			With("operation", "update session").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return "", oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	return key, nil
}

// Delete removes a session. A missing key is not an error.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM sessions WHERE key = $1
	`, key)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// DeleteByUser removes every session whose state names userID.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := s.db.Exec(ctx, `
		DELETE FROM sessions WHERE state->>'user_id' = $1
	`, strconv.FormatInt(userID, 10))
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete user sessions").
			With("user_id", userID).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes sessions whose expires_at has passed.
// Rows without a readable timestamp are left alone; Authenticate removes
// them when they are next presented.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE CASE
			WHEN state->>'expires_at' ~ '^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$'
			THEN (state->>'expires_at')::timestamptz < $1
			ELSE false
		END
	`, s.now().UTC())
	if err != nil {
		return 0, oops.Code("SESSION_CLEANUP_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionStore)(nil)
