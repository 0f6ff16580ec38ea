// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lentos/lentos/pkg/errutil"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := Default()
	cfg.Session.SigningKey = testSigningKey
	return cfg
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestDefault_NeedsSigningKey(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.signing_key")

	require.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 0 }, "server.http_port"},
		{"tls same ports", func(c *Config) { c.TLS.Enabled = true; c.Server.HTTPSPort = c.Server.HTTPPort }, "must differ"},
		{"tls files without self-signed", func(c *Config) { c.TLS.Enabled = true; c.TLS.SelfSigned = false }, "tls.cert_file"},
		{"no database", func(c *Config) { c.Database.URL = "" }, "database.url"},
		{"zero pool", func(c *Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"short key", func(c *Config) { c.Session.SigningKey = "short" }, "session.signing_key"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "memcached" }, "session.backend"},
		{"redis without addr", func(c *Config) { c.Session.Backend = BackendRedis; c.Redis.Addr = "" }, "redis.addr"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"guest without password", func(c *Config) { c.Guest.Password = "" }, "guest.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

func TestValidate_GuestDisabledSkipsFields(t *testing.T) {
	cfg := validConfig()
	cfg.Guest = GuestConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestServerAddrs(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", HTTPPort: 80, HTTPSPort: 443}
	assert.Equal(t, "0.0.0.0:80", s.HTTPAddr())
	assert.Equal(t, "0.0.0.0:443", s.HTTPSAddr())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  http_port: 9000
session:
  signing_key: `+testSigningKey+`
  ttl: 2h
log:
  format: text
`)

	cfg, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "untouched keys keep defaults")
	assert.Equal(t, BackendPostgres, cfg.Session.Backend)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `
server:
  http_port: 9000
  host: 10.0.0.1
session:
  signing_key: from-file-but-long-enough-to-pass-the-check
database:
  url: postgres://file/db
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--http-port=9100", "--log-level=debug"}))

	env := envconfig.MapLookuper(map[string]string{
		"DATABASE_URL":        "postgres://env/db",
		"SESSION_SIGNING_KEY": testSigningKey,
	})

	cfg, err := Load(context.Background(), Options{Path: path, Flags: flags, Lookuper: env})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.HTTPPort, "changed flag beats file")
	assert.Equal(t, "10.0.0.1", cfg.Server.Host, "unchanged flag leaves file value")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL, "environment beats file")
	assert.Equal(t, testSigningKey, cfg.Session.SigningKey)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(context.Background(), Options{
		Path:     filepath.Join(t.TempDir(), "missing.yaml"),
		Lookuper: noEnv(),
	})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestLoad_DefaultPathMayBeMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(context.Background(), Options{
		Lookuper: envconfig.MapLookuper(map[string]string{"SESSION_SIGNING_KEY": testSigningKey}),
	})
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoad_InvalidResultRejected(t *testing.T) {
	path := writeFile(t, "session:\n  backend: memcached\n  signing_key: "+testSigningKey+"\n")

	_, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestLoad_SelfSignedPathsFilled(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	path := writeFile(t, "tls:\n  enabled: true\nsession:\n  signing_key: "+testSigningKey+"\n")

	cfg, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.NoError(t, err)
	assert.Equal(t, "/data/lentos/certs/server.crt", cfg.TLS.CertFile)
	assert.Equal(t, "/data/lentos/certs/server.key", cfg.TLS.KeyFile)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	written, err := Init(path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	cfg, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.NoError(t, err, "generated file must load and validate")
	assert.Len(t, cfg.Session.SigningKey, 64)
	assert.Equal(t, Default().Session.TTL, cfg.Session.TTL)

	_, err = Init(path, false)
	require.ErrorIs(t, err, ErrConfigExists)

	_, err = Init(path, true)
	require.NoError(t, err)
	again, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Session.SigningKey, again.Session.SigningKey, "force regenerates the key")
}

func TestEnsureDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	want := filepath.Join(dir, "lentos", "config.yaml")

	path, created, err := EnsureDefault()
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, want, path)

	cfg, err := Load(context.Background(), Options{Lookuper: noEnv()})
	require.NoError(t, err, "written defaults must load and validate")
	assert.Len(t, cfg.Session.SigningKey, 64)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	path, created, err = EnsureDefault()
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, want, path)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "an existing file is left alone")
}

func TestGenerateSigningKey(t *testing.T) {
	a, err := GenerateSigningKey()
	require.NoError(t, err)
	b, err := GenerateSigningKey()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Empty(t, strings.Trim(a, "0123456789abcdef"))
}

func TestLoad_SkipValidation(t *testing.T) {
	path := writeFile(t, "database:\n  url: postgres://only/db\n")

	_, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv()})
	require.Error(t, err, "signing key missing")

	cfg, err := Load(context.Background(), Options{Path: path, Lookuper: noEnv(), SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, "postgres://only/db", cfg.Database.URL)
}
