// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/internal/apperr"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantLogged bool
	}{
		{
			name:       "wrapped application error",
			err:        oops.Code("TODO_GET_FORBIDDEN").Wrap(apperr.Forbidden(apperr.OpReceive, "Todo")),
			wantStatus: http.StatusForbidden,
			wantMsg:    "You have no permission to receive this Todo",
		},
		{
			name:       "echo not found",
			err:        echo.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Not Found",
		},
		{
			name:       "internal failure",
			err:        oops.Code("TODO_LIST_FAILED").With("owner", 5).Wrap(errors.New("pq: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    internalMessage,
			wantLogged: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := NewHTTPErrorHandler(slog.New(slog.NewJSONHandler(&logs, nil)))

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/todos", nil), rec)
			handler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.NotContains(t, rec.Body.String(), "connection refused")

			if tt.wantLogged {
				assert.Contains(t, logs.String(), "TODO_LIST_FAILED")
				assert.Contains(t, logs.String(), "connection refused")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	handler := NewHTTPErrorHandler(slog.New(slog.DiscardHandler))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusAccepted, "done"))

	handler(errors.New("late"), c)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
