// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// HTTPObserver records completed requests.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// Metrics reports each request to obs, labelled by route template so that
// path parameters do not explode label cardinality. Unmatched routes are
// reported as "unmatched".
func Metrics(obs HTTPObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
