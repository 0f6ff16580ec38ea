// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lentos/lentos/internal/todo"
)

// TodoHandler serves /todos. Every route acts on behalf of the
// authenticated user; ownership is enforced by the repository.
type TodoHandler struct {
	todos todo.Repository
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(todos todo.Repository) *TodoHandler {
	return &TodoHandler{todos: todos}
}

type createTodoRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type updateTodoRequest struct {
	ID          int64   `json:"id" validate:"required,gt=0"`
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	IsDone      *bool   `json:"is_done"`
}

// List returns the requester's todos.
func (h *TodoHandler) List(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	todos, err := h.todos.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todos)
}

// Get returns one todo.
func (h *TodoHandler) Get(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.todos.Get(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Create adds a todo owned by the requester.
func (h *TodoHandler) Create(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	var req createTodoRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t, err := h.todos.Create(c.Request().Context(), todo.CreateTodo{
		Title:       req.Title,
		Description: req.Description,
	}, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Update applies a partial update.
func (h *TodoHandler) Update(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	var req updateTodoRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t, err := h.todos.Update(c.Request().Context(), todo.UpdateTodo{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		IsDone:      req.IsDone,
	}, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Delete removes a todo.
func (h *TodoHandler) Delete(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.todos.Delete(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okBody{Status: http.StatusOK, Message: "Todo deleted"})
}
