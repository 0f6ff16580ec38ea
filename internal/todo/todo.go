// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package todo defines todo items and their ownership-scoped repository contract.
package todo

import (
	"context"
	"strings"
	"time"

	"github.com/lentos/lentos/internal/apperr"
)

// Relation is the name used in client-facing repository errors.
const Relation = "Todo"

// Todo is a single task owned by one user. Owner never changes after creation.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsDone      bool      `json:"is_done"`
	Owner       int64     `json:"owner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTodo holds the fields of a new todo.
type CreateTodo struct {
	Title       string
	Description string
}

// Validate rejects a todo without a title.
func (c CreateTodo) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return apperr.BadRequest("title is required")
	}
	return nil
}

// UpdateTodo is a partial update of the todo with the given ID.
// Nil fields keep their stored value.
type UpdateTodo struct {
	ID          int64
	Title       *string
	Description *string
	IsDone      *bool
}

// Repository manages todo persistence. Every operation except Create is
// scoped to the requesting user; a todo owned by someone else is Forbidden.
type Repository interface {
	// List returns the owner's todos ordered by ID.
	List(ctx context.Context, ownerID int64) ([]Todo, error)

	// Get returns a todo if the requester owns it.
	Get(ctx context.Context, todoID, requesterID int64) (*Todo, error)

	// Create stores a new todo owned by ownerID.
	Create(ctx context.Context, create CreateTodo, ownerID int64) (*Todo, error)

	// Update applies a partial update. Ownership check and write are atomic.
	Update(ctx context.Context, update UpdateTodo, requesterID int64) (*Todo, error)

	// Delete removes a todo. Ownership check and delete are atomic.
	Delete(ctx context.Context, todoID, requesterID int64) error
}
