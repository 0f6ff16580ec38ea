// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// Session configuration.
const (
	SessionKeyLength  = 64
	DefaultSessionTTL = 24 * time.Hour
)

// Well-known SessionState keys.
const (
	StateUserID    = "user_id"
	StateExpiresAt = "expires_at"
)

const sessionKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SessionState is the string map stored under a session key.
type SessionState map[string]string

// NewSessionState returns the state of a fresh session for userID.
func NewSessionState(userID int64, expiresAt time.Time) SessionState {
	return SessionState{
		StateUserID:    strconv.FormatInt(userID, 10),
		StateExpiresAt: expiresAt.UTC().Format(time.RFC3339Nano),
	}
}

// UserID returns the owning user's ID.
func (s SessionState) UserID() (int64, error) {
	raw, ok := s[StateUserID]
	if !ok {
		return 0, oops.Code("SESSION_STATE_INVALID").Wrapf(ErrSessionCorrupt, "missing %s", StateUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("SESSION_STATE_INVALID").With("user_id", raw).Wrap(ErrSessionCorrupt)
	}
	return id, nil
}

// ExpiresAt returns the session's expiry.
func (s SessionState) ExpiresAt() (time.Time, error) {
	raw, ok := s[StateExpiresAt]
	if !ok {
		return time.Time{}, oops.Code("SESSION_STATE_INVALID").Wrapf(ErrSessionCorrupt, "missing %s", StateExpiresAt)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, oops.Code("SESSION_STATE_INVALID").With("expires_at", raw).Wrap(ErrSessionCorrupt)
	}
	return t, nil
}

// Clone returns a copy of the state.
func (s SessionState) Clone() SessionState {
	out := make(SessionState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EncodeState serialises a state for storage.
func EncodeState(state SessionState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	return data, nil
}

// DecodeState parses stored session data. Any failure wraps ErrSessionCorrupt.
func DecodeState(data []byte) (SessionState, error) {
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").
			With("error", err.Error()).
			Wrap(ErrSessionCorrupt)
	}
	if state == nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").Wrapf(ErrSessionCorrupt, "null state")
	}
	return state, nil
}

// GenerateSessionKey returns a SessionKeyLength-character alphanumeric key
// drawn uniformly from crypto/rand.
func GenerateSessionKey() (string, error) {
	// 62 symbols: bytes >= 248 are rejected so every symbol is equally likely.
	const maxByte = 256 - (256 % len(sessionKeyAlphabet))

	key := make([]byte, 0, SessionKeyLength)
	buf := make([]byte, SessionKeyLength)
	for len(key) < SessionKeyLength {
		if _, err := rand.Read(buf); err != nil {
			return "", oops.Code("SESSION_KEY_GENERATE_FAILED").
				With("operation", "crypto/rand.Read").
				Wrap(err)
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			key = append(key, sessionKeyAlphabet[int(b)%len(sessionKeyAlphabet)])
			if len(key) == SessionKeyLength {
				break
			}
		}
	}
	return string(key), nil
}

// ValidSessionKey reports whether key has the shape of a generated key.
func ValidSessionKey(key string) bool {
	if len(key) != SessionKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// SessionStore persists session state by key.
type SessionStore interface {
	// Load returns the state stored under key. Returns ErrSessionNotFound
	// when absent and ErrSessionCorrupt when the stored data cannot be decoded.
	Load(ctx context.Context, key string) (SessionState, error)

	// Save stores state under a newly generated key and returns it. A key
	// collision is an error, never an overwrite.
	Save(ctx context.Context, state SessionState, ttl time.Duration) (string, error)

	// Update overwrites the state of an existing key. Returns
	// ErrSessionNotFound when the key no longer exists.
	Update(ctx context.Context, key string, state SessionState, ttl time.Duration) (string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteExpired removes sessions whose expiry has passed and returns
	// the count removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteByUser removes every session belonging to userID and returns
	// the count removed.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
