// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package usertest provides an in-memory user.Repository for tests.
package usertest

import (
	"context"
	"sync"
	"time"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/user"
)

// Repository is a concurrency-safe in-memory user.Repository.
type Repository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]user.User
}

// NewRepository returns an empty Repository.
func NewRepository() *Repository {
	return &Repository{users: make(map[int64]user.User)}
}

// GetByEmail implements user.Repository.
func (r *Repository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound(user.Relation)
}

// GetByID implements user.Repository.
func (r *Repository) GetByID(_ context.Context, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound(user.Relation)
	}
	return &u, nil
}

// Create implements user.Repository.
func (r *Repository) Create(_ context.Context, create user.CreateUser) (*user.User, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := user.NormalizeEmail(create.Email)
	if r.emailTakenLocked(email, 0) {
		return nil, apperr.Conflict(user.ConflictMessage)
	}

	r.nextID++
	now := time.Now().UTC()
	u := user.User{
		ID:           r.nextID,
		Name:         create.Name,
		Email:        email,
		PasswordHash: create.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[u.ID] = u
	return &u, nil
}

// Update implements user.Repository.
func (r *Repository) Update(_ context.Context, update user.UpdateUser, id int64) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperr.Forbidden(apperr.OpUpdate, user.Relation)
	}
	if update.Email != nil {
		email := user.NormalizeEmail(*update.Email)
		if r.emailTakenLocked(email, id) {
			return nil, apperr.Conflict(user.ConflictMessage)
		}
		u.Email = email
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return &u, nil
}

// Delete implements user.Repository.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperr.Forbidden(apperr.OpDelete, user.Relation)
	}
	delete(r.users, id)
	return nil
}

// Len returns the number of stored users.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *Repository) emailTakenLocked(email string, except int64) bool {
	for id, u := range r.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

var _ user.Repository = (*Repository)(nil)
