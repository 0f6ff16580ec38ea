// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// VersionHeader carries the server version on health responses.
const VersionHeader = "version"

// Health answers liveness checks with the running version.
func Health(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(VersionHeader, version)
		return c.NoContent(http.StatusOK)
	}
}
