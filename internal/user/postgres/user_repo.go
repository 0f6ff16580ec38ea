// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package postgres implements user.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/store"
	"github.com/lentos/lentos/internal/user"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	db store.DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db store.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(apperr.NotFound(user.Relation))
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(apperr.NotFound(user.Relation))
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return u, nil
}

// Create stores a new user and returns the persisted row.
func (r *UserRepository) Create(ctx context.Context, create user.CreateUser) (*user.User, error) {
	if err := create.Validate(); err != nil {
		return nil, oops.Code("USER_CREATE_INVALID").Wrap(err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		create.Name,
		user.NormalizeEmail(create.Email),
		create.PasswordHash,
	)

	u, err := scanUser(row)
	if store.IsUniqueViolation(err) {
		return nil, oops.Code("USER_EMAIL_TAKEN").Wrap(apperr.Conflict(user.ConflictMessage))
	}
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return u, nil
}

// Update applies a partial update. Unset fields keep their stored value.
func (r *UserRepository) Update(ctx context.Context, update user.UpdateUser, id int64) (*user.User, error) {
	var email *string
	if update.Email != nil {
		normalized := user.NormalizeEmail(*update.Email)
		email = &normalized
	}

	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET
			name = COALESCE($1, name),
			email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		update.Name,
		email,
		update.PasswordHash,
		id,
	)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_UPDATE_FORBIDDEN").
			With("id", id).
			Wrap(apperr.Forbidden(apperr.OpUpdate, user.Relation))
	}
	if store.IsUniqueViolation(err) {
		return nil, oops.Code("USER_EMAIL_TAKEN").
			With("id", id).
			Wrap(apperr.Conflict(user.ConflictMessage))
	}
	if err != nil {
		return nil, oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id).
			Wrap(err)
	}
	return u, nil
}

// Delete removes a user. Their todos are removed by the foreign key cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM users WHERE id = $1
	`, id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_DELETE_FORBIDDEN").
			With("id", id).
			Wrap(apperr.Forbidden(apperr.OpDelete, user.Relation))
	}
	return nil
}

// scanUser scans a single row into a User.
// pgx.ErrNoRows and driver errors are returned unwrapped for the caller to classify.
func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific codes
	}
	return &u, nil
}

// Compile-time interface check.
var _ user.Repository = (*UserRepository)(nil)
