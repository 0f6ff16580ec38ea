// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request with method, route, status and
// latency. Server errors log at error level, client errors at warn.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			req := c.Request()
			logger.Log(req.Context(), level, "http request",
				"method", req.Method,
				"path", req.URL.Path,
				"route", c.Path(),
				"status", status,
				"latency", time.Since(start),
				"remote_ip", c.RealIP(),
			)
			return nil
		}
	}
}
