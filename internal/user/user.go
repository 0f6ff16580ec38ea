// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package user defines user accounts and their repository contract.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/lentos/lentos/internal/apperr"
)

// Relation is the name used in client-facing repository errors.
const Relation = "User"

// ConflictMessage is returned when an email address is already registered.
const ConflictMessage = "A user with the provided email address already exists."

// User is a registered account. PasswordHash always holds an encoded hash and
// is never serialised to clients.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUser holds the fields for a new account. PasswordHash must already be
// hashed; repositories only store it.
type CreateUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// Validate reports the first missing required field as a BadRequest error.
func (c CreateUser) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return apperr.BadRequest("name is required")
	case strings.TrimSpace(c.Email) == "":
		return apperr.BadRequest("email is required")
	case c.PasswordHash == "":
		return apperr.BadRequest("password is required")
	}
	return nil
}

// UpdateUser is a partial update. Nil fields keep their stored value.
type UpdateUser struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// IsEmpty reports whether the update changes no stored column.
func (u UpdateUser) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil
}

// NormalizeEmail lower-cases and trims an email address. Emails are unique
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Repository manages user persistence.
type Repository interface {
	// GetByEmail retrieves a user by email. Only the login flow may call it:
	// its NotFound result must never reach a client directly.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// Create stores a new user. A duplicate email is a Conflict.
	Create(ctx context.Context, create CreateUser) (*User, error)

	// Update applies a partial update to the user with the given ID.
	// A missing row is Forbidden.
	Update(ctx context.Context, update UpdateUser, id int64) (*User, error)

	// Delete removes the user with the given ID. A missing row is Forbidden.
	Delete(ctx context.Context, id int64) error
}
