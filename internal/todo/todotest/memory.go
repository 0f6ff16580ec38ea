// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package todotest provides an in-memory todo.Repository for tests.
package todotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/todo"
)

// Repository is a concurrency-safe in-memory todo.Repository.
type Repository struct {
	mu     sync.Mutex
	nextID int64
	todos  map[int64]todo.Todo
}

// NewRepository returns an empty Repository.
func NewRepository() *Repository {
	return &Repository{todos: make(map[int64]todo.Todo)}
}

// List implements todo.Repository.
func (r *Repository) List(_ context.Context, ownerID int64) ([]todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]todo.Todo, 0)
	for _, t := range r.todos {
		if t.Owner == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get implements todo.Repository.
func (r *Repository) Get(_ context.Context, todoID, requesterID int64) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[todoID]
	if !ok {
		return nil, apperr.NotFound(todo.Relation)
	}
	if t.Owner != requesterID {
		return nil, apperr.Forbidden(apperr.OpReceive, todo.Relation)
	}
	return &t, nil
}

// Create implements todo.Repository.
func (r *Repository) Create(_ context.Context, create todo.CreateTodo, ownerID int64) (*todo.Todo, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	t := todo.Todo{
		ID:          r.nextID,
		Title:       create.Title,
		Description: create.Description,
		Owner:       ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.todos[t.ID] = t
	return &t, nil
}

// Update implements todo.Repository.
func (r *Repository) Update(_ context.Context, update todo.UpdateTodo, requesterID int64) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[update.ID]
	if !ok || t.Owner != requesterID {
		return nil, apperr.Forbidden(apperr.OpUpdate, todo.Relation)
	}
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.IsDone != nil {
		t.IsDone = *update.IsDone
	}
	t.UpdatedAt = time.Now().UTC()
	r.todos[t.ID] = t
	return &t, nil
}

// Delete implements todo.Repository.
func (r *Repository) Delete(_ context.Context, todoID, requesterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[todoID]
	if !ok || t.Owner != requesterID {
		return apperr.Forbidden(apperr.OpDelete, todo.Relation)
	}
	delete(r.todos, todoID)
	return nil
}

// DeleteByOwner removes every todo owned by ownerID, mirroring the
// users → todos cascade of the relational schema.
func (r *Repository) DeleteByOwner(ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.todos {
		if t.Owner == ownerID {
			delete(r.todos, id)
		}
	}
}

var _ todo.Repository = (*Repository)(nil)
