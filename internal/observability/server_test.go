// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()
	server := NewServer("127.0.0.1:0", ready, nil)
	_, err := server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test URL
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startServer(t, nil)
	server.Metrics().LoginAttempt("success")

	status, body := get(t, "http://"+server.Addr()+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, `lentos_login_attempts_total{result="success"} 1`)
}

func TestServer_Probes(t *testing.T) {
	var readyErr error
	server := NewServer("127.0.0.1:0", func(context.Context) error { return readyErr }, nil)
	handler := server.Handler()

	check := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code, rec.Body.String()
	}

	status, body := check("/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, _ = check("/healthz/readiness")
	assert.Equal(t, http.StatusOK, status)

	readyErr = errors.New("database unreachable")
	status, body = check("/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)
	assert.NotContains(t, body, "database")

	status, _ = check("/healthz/liveness")
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_StartStop(t *testing.T) {
	server := startServer(t, nil)

	_, err := server.Start()
	assert.Error(t, err, "second Start should fail")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	require.NoError(t, server.Stop(ctx), "second Stop is a no-op")
}

func TestServer_ListenError(t *testing.T) {
	server := NewServer("256.0.0.1:bad", nil, nil)
	_, err := server.Start()
	require.Error(t, err)
}
