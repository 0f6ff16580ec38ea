// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/lentos/lentos/internal/logging"
)

// maxRequestIDLength bounds a client-supplied request ID.
const maxRequestIDLength = 64

// RequestID assigns every request a ULID, or keeps a sane client-supplied
// X-Request-ID. The ID is echoed in the response and attached to the
// request context for logging.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > maxRequestIDLength {
				id = ulid.Make().String()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
			return next(c)
		}
	}
}
