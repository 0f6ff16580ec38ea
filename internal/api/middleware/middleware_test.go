// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/logging"
)

type stubAuthenticator struct {
	userID int64
	err    error
	keys   []string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, key string) (int64, error) {
	s.keys = append(s.keys, key)
	return s.userID, s.err
}

func newCookies(t *testing.T) Cookies {
	t.Helper()
	signer, err := auth.NewCookieSigner(strings.Repeat("k", auth.MinSigningKeyLength))
	require.NoError(t, err)
	return Cookies{Signer: signer}
}

func TestSession(t *testing.T) {
	jar := newCookies(t)
	key, err := auth.GenerateSessionKey()
	require.NoError(t, err)

	tests := []struct {
		name      string
		cookie    string
		authn     *stubAuthenticator
		wantErr   error
		wantCalls int
	}{
		{name: "no cookie", authn: &stubAuthenticator{}, wantErr: auth.ErrUnauthorized},
		{name: "unsigned", cookie: key, authn: &stubAuthenticator{}, wantErr: auth.ErrUnauthorized},
		{name: "rejected by service", cookie: jar.Signer.Sign(key), authn: &stubAuthenticator{err: auth.ErrUnauthorized}, wantErr: auth.ErrUnauthorized, wantCalls: 1},
		{name: "valid", cookie: jar.Signer.Sign(key), authn: &stubAuthenticator{userID: 42}, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var gotUser int64
			var gotKey string
			err := Session(jar, tt.authn)(func(c echo.Context) error {
				gotUser, _ = UserID(c)
				gotKey, _ = SessionKey(c)
				return nil
			})(c)

			assert.Len(t, tt.authn.keys, tt.wantCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), gotUser)
			assert.Equal(t, key, gotKey)
		})
	}
}

func TestUserID_Unset(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := UserID(c)
	assert.False(t, ok)
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	var ctxID string
	err := RequestID()(func(c echo.Context) error {
		ctxID = logging.RequestID(c.Request().Context())
		return nil
	})(c)
	require.NoError(t, err)

	header := rec.Header().Get(echo.HeaderXRequestID)
	_, parseErr := ulid.ParseStrict(header)
	assert.NoError(t, parseErr)
	assert.Equal(t, header, ctxID)
}

func TestRequestID_OversizedClientValueReplaced(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, strings.Repeat("x", maxRequestIDLength+1))
	rec := httptest.NewRecorder()

	require.NoError(t, RequestID()(func(echo.Context) error { return nil })(e.NewContext(req, rec)))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 26)
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	var logs bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(http.StatusTeapot)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/brew", nil), rec)

	mw := RequestLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	err := mw(func(echo.Context) error { return errors.New("no coffee") })(c)

	require.NoError(t, err, "error is handled inside the middleware")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), `"status":418`)
	assert.Contains(t, logs.String(), `"path":"/brew"`)
}

type recorder struct {
	route  string
	status int
}

func (r *recorder) ObserveHTTP(_, route string, status int, _ time.Duration) {
	r.route, r.status = route, status
}

func TestMetrics_Unmatched(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/nowhere", nil), rec)
	obs := &recorder{}

	err := Metrics(obs)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	require.NoError(t, err)
	assert.Equal(t, "unmatched", obs.route)
	assert.Equal(t, http.StatusNoContent, obs.status)
}
