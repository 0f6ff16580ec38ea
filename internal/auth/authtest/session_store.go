// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package authtest provides in-memory auth fakes for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/auth"
)

// SessionStore is a concurrency-safe in-memory auth.SessionStore. State is
// kept encoded so corrupt rows can be simulated with PutRaw.
type SessionStore struct {
	mu   sync.Mutex
	data map[string][]byte
	now  func() time.Time
}

// NewSessionStore returns an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string][]byte), now: time.Now}
}

// WithClock sets the clock used by DeleteExpired.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Load implements auth.SessionStore.
func (s *SessionStore) Load(_ context.Context, key string) (auth.SessionState, error) {
	s.mu.Lock()
	data, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	return auth.DecodeState(data)
}

// Save implements auth.SessionStore.
func (s *SessionStore) Save(_ context.Context, state auth.SessionState, _ time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}
	key, err := auth.GenerateSessionKey()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return "", oops.Code("SESSION_KEY_COLLISION").Errorf("session key collision")
	}
	s.data[key] = data
	return key, nil
}

// Update implements auth.SessionStore.
func (s *SessionStore) Update(_ context.Context, key string, state auth.SessionState, _ time.Duration) (string, error) {
	data, err := auth.EncodeState(state)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return "", oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrSessionNotFound)
	}
	s.data[key] = data
	return key, nil
}

// Delete implements auth.SessionStore.
func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// DeleteExpired implements auth.SessionStore. Undecodable rows are kept,
// matching the SQL adapter which only compares readable expiries.
func (s *SessionStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for key, data := range s.data {
		state, err := auth.DecodeState(data)
		if err != nil {
			continue
		}
		exp, err := state.ExpiresAt()
		if err != nil {
			continue
		}
		if exp.Before(now) {
			delete(s.data, key)
			n++
		}
	}
	return n, nil
}

// DeleteByUser implements auth.SessionStore. Undecodable rows are kept.
func (s *SessionStore) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, data := range s.data {
		state, err := auth.DecodeState(data)
		if err != nil {
			continue
		}
		if id, err := state.UserID(); err == nil && id == userID {
			delete(s.data, key)
			n++
		}
	}
	return n, nil
}

// PutRaw stores raw bytes under key.
func (s *SessionStore) PutRaw(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
}

// Has reports whether key is stored.
func (s *SessionStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

var _ auth.SessionStore = (*SessionStore)(nil)
