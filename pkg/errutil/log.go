// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package errutil logs coded errors and asserts on them in tests.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/lentos/lentos/internal/apperr"
)

// LogError logs err at error level with its oops code and context when
// present. Client-facing application errors also carry their HTTP status.
func LogError(logger *slog.Logger, msg string, err error) {
	LogErrorContext(context.Background(), logger, msg, err)
}

// LogErrorContext is LogError with a context, so request-scoped attributes
// added by the logging handler are attached.
func LogErrorContext(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, msg, Attrs(err)...)
}

// Attrs returns the structured attributes describing err.
func Attrs(err error) []any {
	attrs := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
	}
	if appErr, ok := apperr.As(err); ok {
		attrs = append(attrs, "status", appErr.Status())
	}
	return attrs
}
