// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package postgres implements todo.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/store"
	"github.com/lentos/lentos/internal/todo"
)

const todoColumns = `id, title, description, is_done, owner, created_at, updated_at`

// TodoRepository implements todo.Repository using PostgreSQL.
type TodoRepository struct {
	db store.DBTX
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db store.DBTX) *TodoRepository {
	return &TodoRepository{db: db}
}

// List returns all todos owned by ownerID.
func (r *TodoRepository) List(ctx context.Context, ownerID int64) ([]todo.Todo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE owner = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("operation", "list todos").
			With("owner", ownerID).
			Wrap(err)
	}
	defer rows.Close()

	todos := make([]todo.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, oops.Code("TODO_SCAN_FAILED").
				With("owner", ownerID).
				Wrap(err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TODO_LIST_FAILED").
			With("operation", "iterate todos").
			With("owner", ownerID).
			Wrap(err)
	}
	return todos, nil
}

// Get returns the todo if requesterID owns it.
func (r *TodoRepository) Get(ctx context.Context, todoID, requesterID int64) (*todo.Todo, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE id = $1
	`, todoID)

	t, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TODO_NOT_FOUND").
			With("id", todoID).
			Wrap(apperr.NotFound(todo.Relation))
	}
	if err != nil {
		return nil, oops.Code("TODO_GET_FAILED").
			With("operation", "get todo").
			With("id", todoID).
			Wrap(err)
	}
	if t.Owner != requesterID {
		return nil, oops.Code("TODO_GET_FORBIDDEN").
			With("id", todoID).
			With("requester", requesterID).
			Wrap(apperr.Forbidden(apperr.OpReceive, todo.Relation))
	}
	return t, nil
}

// Create stores a new todo with is_done=false.
func (r *TodoRepository) Create(ctx context.Context, create todo.CreateTodo, ownerID int64) (*todo.Todo, error) {
	if err := create.Validate(); err != nil {
		return nil, oops.Code("TODO_CREATE_INVALID").Wrap(err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO todos (title, description, owner)
		VALUES ($1, $2, $3)
		RETURNING `+todoColumns,
		create.Title,
		create.Description,
		ownerID,
	)

	t, err := scanTodo(row)
	if store.IsForeignKeyViolation(err) {
		return nil, oops.Code("TODO_OWNER_MISSING").
			With("owner", ownerID).
			Wrap(apperr.Forbidden(apperr.OpCreate, todo.Relation))
	}
	if err != nil {
		return nil, oops.Code("TODO_CREATE_FAILED").
			With("operation", "insert todo").
			With("owner", ownerID).
			Wrap(err)
	}
	return t, nil
}

// Update applies a partial update in one statement scoped by owner.
// A missing todo and a foreign todo are indistinguishable: both are Forbidden.
func (r *TodoRepository) Update(ctx context.Context, update todo.UpdateTodo, requesterID int64) (*todo.Todo, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE todos
		SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			is_done = COALESCE($3, is_done),
			updated_at = NOW()
		WHERE id = $4 AND owner = $5
		RETURNING `+todoColumns,
		update.Title,
		update.Description,
		update.IsDone,
		update.ID,
		requesterID,
	)

	t, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TODO_UPDATE_FORBIDDEN").
			With("id", update.ID).
			With("requester", requesterID).
			Wrap(apperr.Forbidden(apperr.OpUpdate, todo.Relation))
	}
	if err != nil {
		return nil, oops.Code("TODO_UPDATE_FAILED").
			With("operation", "update todo").
			With("id", update.ID).
			Wrap(err)
	}
	return t, nil
}

// Delete removes a todo in one statement scoped by owner.
func (r *TodoRepository) Delete(ctx context.Context, todoID, requesterID int64) error {
	result, err := r.db.Exec(ctx, `
		DELETE FROM todos WHERE id = $1 AND owner = $2
	`, todoID, requesterID)
	if err != nil {
		return oops.Code("TODO_DELETE_FAILED").
			With("operation", "delete todo").
			With("id", todoID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("TODO_DELETE_FORBIDDEN").
			With("id", todoID).
			With("requester", requesterID).
			Wrap(apperr.Forbidden(apperr.OpDelete, todo.Relation))
	}
	return nil
}

// scanTodo scans a single row into a Todo.
func scanTodo(row pgx.Row) (*todo.Todo, error) {
	var t todo.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.IsDone, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific codes
	}
	return &t, nil
}

// Compile-time interface check.
var _ todo.Repository = (*TodoRepository)(nil)
