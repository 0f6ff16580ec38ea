// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package handler implements the echo route handlers of the lentos HTTP API.
package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lentos/lentos/internal/api/middleware"
	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/internal/auth"
)

// requester returns the authenticated user ID. Routes behind the session
// middleware always have one; its absence is treated as unauthenticated.
func requester(c echo.Context) (int64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, auth.ErrUnauthorized
	}
	return id, nil
}

// bindValid binds the request body into dst and validates it.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.BadRequest("malformed request body")
	}
	return c.Validate(dst)
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest(name + " must be a positive integer")
	}
	return id, nil
}

// okBody is the body of successful operations that return no resource.
type okBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
