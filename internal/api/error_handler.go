// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lentos/lentos/internal/apperr"
	"github.com/lentos/lentos/pkg/errutil"
)

// internalMessage is the only thing clients learn about unexpected failures.
const internalMessage = "Something went wrong. Try again later."

// errorResponse is the body of every error answer.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps application
// errors to their status and public message, passes echo's own HTTP errors
// through, and logs everything else before answering with a generic 500.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := resolveError(err, logger, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Status: status, Message: msg})
	}
}

func resolveError(err error, logger *slog.Logger, c echo.Context) (int, string) {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Status(), appErr.Message
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	req := c.Request()
	errutil.LogErrorContext(req.Context(), logger, "unhandled request error",
		fmt.Errorf("%s %s: %w", req.Method, c.Path(), err))
	return http.StatusInternalServerError, internalMessage
}
