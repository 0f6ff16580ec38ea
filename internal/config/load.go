// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"

	"github.com/lentos/lentos/internal/xdg"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"host":            "server.host",
	"http-port":       "server.http_port",
	"https-port":      "server.https_port",
	"tls":             "tls.enabled",
	"tls-cert":        "tls.cert_file",
	"tls-key":         "tls.key_file",
	"session-backend": "session.backend",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"metrics-addr":    "metrics.addr",
	"seed-guest":      "guest.enabled",
}

// secrets are read from the environment last and override every other layer.
type secrets struct {
	DatabaseURL   string `env:"DATABASE_URL"`
	SigningKey    string `env:"SESSION_SIGNING_KEY"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// BindFlags registers the overridable settings on fs. Only flags the user
// actually sets take part in Load.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("host", d.Server.Host, "interface to listen on")
	fs.Int("http-port", d.Server.HTTPPort, "plain HTTP port")
	fs.Int("https-port", d.Server.HTTPSPort, "HTTPS port")
	fs.Bool("tls", d.TLS.Enabled, "serve HTTPS and redirect plain HTTP")
	fs.String("tls-cert", d.TLS.CertFile, "TLS certificate file")
	fs.String("tls-key", d.TLS.KeyFile, "TLS private key file")
	fs.String("session-backend", d.Session.Backend, "session store backend (postgres, redis)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("log-format", d.Log.Format, "log format (json, text)")
	fs.String("metrics-addr", d.Metrics.Addr, "observability server address, empty to disable")
	fs.Bool("seed-guest", d.Guest.Enabled, "seed the guest account before serving")
}

// Options controls Load.
type Options struct {
	// Path is the configuration file. Empty means the XDG default, which
	// may be absent; an explicit path must exist.
	Path string
	// Flags holds command-line overrides registered with BindFlags.
	Flags *pflag.FlagSet
	// Lookuper resolves environment secrets. Nil means the process environment.
	Lookuper envconfig.Lookuper
	// SkipValidation returns the merged configuration without Validate, for
	// commands that only need part of it.
	SkipValidation bool
}

// Load builds the configuration: defaults, then the YAML file, then changed
// flags, then environment secrets. The result is validated.
func Load(ctx context.Context, opts Options) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	path, explicit, err := resolvePath(opts.Path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").With("path", path).Wrap(err)
	}

	if err := applySecrets(ctx, cfg, opts.Lookuper); err != nil {
		return nil, err
	}

	if err := cfg.fillTLSPaths(); err != nil {
		return nil, err
	}

	if opts.SkipValidation {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, bool, error) {
	if path != "" {
		return path, true, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		return "", false, oops.Code("CONFIG_PATH_FAILED").Wrap(err)
	}
	return def, false, nil
}

func applySecrets(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	var env secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	if env.DatabaseURL != "" {
		cfg.Database.URL = env.DatabaseURL
	}
	if env.SigningKey != "" {
		cfg.Session.SigningKey = env.SigningKey
	}
	if env.RedisAddr != "" {
		cfg.Redis.Addr = env.RedisAddr
	}
	if env.RedisPassword != "" {
		cfg.Redis.Password = env.RedisPassword
	}
	return nil
}

// fillTLSPaths points generated self-signed certificates at the XDG data dir
// when no paths are configured.
func (c *Config) fillTLSPaths() error {
	if !c.TLS.Enabled || !c.TLS.SelfSigned || (c.TLS.CertFile != "" && c.TLS.KeyFile != "") {
		return nil
	}
	dir, err := xdg.CertsDir()
	if err != nil {
		return oops.Code("CONFIG_PATH_FAILED").Wrap(err)
	}
	if c.TLS.CertFile == "" {
		c.TLS.CertFile = filepath.Join(dir, "server.crt")
	}
	if c.TLS.KeyFile == "" {
		c.TLS.KeyFile = filepath.Join(dir, "server.key")
	}
	return nil
}

// ErrConfigExists is returned by Init when the file exists and force is unset.
var ErrConfigExists = errors.New("configuration file already exists")

// Init writes the default configuration with a freshly generated signing key
// to path (the XDG default when empty) and returns the path written.
func Init(path string, force bool) (string, error) {
	path, _, err := resolvePath(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", oops.Code("CONFIG_EXISTS").With("path", path).Wrap(ErrConfigExists)
	}

	cfg := Default()
	if cfg.Session.SigningKey, err = GenerateSigningKey(); err != nil {
		return "", err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return "", err
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}

// EnsureDefault writes a default configuration to the XDG config file when
// none exists yet. It reports the path and whether a file was written.
func EnsureDefault() (string, bool, error) {
	path, _, err := resolvePath("")
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}

	if _, err := Init(path, false); err != nil {
		return "", false, err
	}
	return path, true, nil
}
