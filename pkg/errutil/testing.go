// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/internal/apperr"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertAppError asserts that err carries an application error of the given
// kind and public message anywhere in its chain.
func AssertAppError(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected application error in chain, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}
