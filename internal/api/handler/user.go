// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lentos/lentos/internal/api/middleware"
	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/user"
)

// Accounts is the account service used by the user routes.
type Accounts interface {
	Register(ctx context.Context, in auth.RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password, previousKey string) (*auth.LoginResult, error)
	Logout(ctx context.Context, key string) error
	Profile(ctx context.Context, userID int64) (*user.User, error)
	UpdateAccount(ctx context.Context, in auth.UpdateAccountInput, userID int64) (*user.User, error)
	DeleteAccount(ctx context.Context, userID int64, key string) error
}

// UserHandler serves /users.
type UserHandler struct {
	accounts Accounts
	cookies  middleware.Cookies
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(accounts Accounts, cookies middleware.Cookies) *UserHandler {
	return &UserHandler{accounts: accounts, cookies: cookies}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=1"`
}

// Register creates an account. It does not log the user in.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	u, err := h.accounts.Register(c.Request().Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Login verifies credentials, rotates any existing session and sets the
// session cookie.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	previous, _ := h.cookies.Key(c)
	result, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password, previous)
	if err != nil {
		return err
	}

	h.cookies.Set(c, result.SessionKey)
	return c.JSON(http.StatusOK, result.User)
}

// Logout ends the current session, if any, and clears the cookie.
func (h *UserHandler) Logout(c echo.Context) error {
	if key, ok := h.cookies.Key(c); ok {
		if err := h.accounts.Logout(c.Request().Context(), key); err != nil {
			return err
		}
	}
	h.cookies.Clear(c)
	return c.JSON(http.StatusOK, okBody{Status: http.StatusOK, Message: "Logged out"})
}

// Get returns the authenticated user.
func (h *UserHandler) Get(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	u, err := h.accounts.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Update applies a partial update to the authenticated user.
func (h *UserHandler) Update(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	u, err := h.accounts.UpdateAccount(c.Request().Context(), auth.UpdateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Delete removes the authenticated user, their todos and their session.
func (h *UserHandler) Delete(c echo.Context) error {
	userID, err := requester(c)
	if err != nil {
		return err
	}
	key, _ := middleware.SessionKey(c)
	if err := h.accounts.DeleteAccount(c.Request().Context(), userID, key); err != nil {
		return err
	}
	h.cookies.Clear(c)
	return c.JSON(http.StatusOK, okBody{Status: http.StatusOK, Message: "User deleted"})
}
