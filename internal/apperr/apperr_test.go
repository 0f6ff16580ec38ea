// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package apperr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/internal/apperr"
)

func TestForbidden_Message(t *testing.T) {
	err := apperr.Forbidden(apperr.OpUpdate, "Todo")
	assert.Equal(t, "You have no permission to update this Todo", err.Error())
	assert.Equal(t, http.StatusForbidden, err.Status())
}

func TestNotFound_Message(t *testing.T) {
	err := apperr.NotFound("Todo")
	assert.Equal(t, "Todo was not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.Status())
}

func TestError_IsMatchesKindSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", apperr.NotFound("User"), apperr.ErrNotFound},
		{"forbidden", apperr.Forbidden(apperr.OpDelete, "User"), apperr.ErrForbidden},
		{"conflict", apperr.Conflict("taken"), apperr.ErrConflict},
		{"bad request", apperr.BadRequest("missing"), apperr.ErrBadRequest},
		{"unauthorized", apperr.Unauthorized("nope"), apperr.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.NotErrorIs(t, tt.err, errors.New("other"))
		})
	}
}

func TestAs_ThroughOopsWrapping(t *testing.T) {
	wrapped := oops.Code("TODO_UPDATE_FORBIDDEN").
		With("todo_id", int64(3)).
		Wrap(apperr.Forbidden(apperr.OpUpdate, "Todo"))

	appErr, ok := apperr.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperr.KindForbidden, appErr.Kind)
	assert.ErrorIs(t, wrapped, apperr.ErrForbidden)
}

func TestAs_PlainError(t *testing.T) {
	_, ok := apperr.As(errors.New("connection refused"))
	assert.False(t, ok)
}

func TestKind_StatusDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, apperr.Kind(0).Status())
}
