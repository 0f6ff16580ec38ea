// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lentos/lentos/internal/api"
	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/config"
	"github.com/lentos/lentos/internal/observability"
	lentostls "github.com/lentos/lentos/internal/tls"
	"github.com/lentos/lentos/pkg/errutil"
)

const readHeaderTimeout = 10 * time.Second

// serveOptions holds flags of the serve command.
type serveOptions struct {
	autoMigrate   bool
	pruneInterval time.Duration
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API. Pending migrations are applied and the guest
account is seeded before the listeners open. With TLS enabled the API is
served over HTTPS and plain HTTP redirects to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := root.ensureDefaultConfig(cmd); err != nil {
				return err
			}
			cfg, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runServe(ctx, cfg, opts, logger); err != nil {
				errutil.LogError(logger, "server failed", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", true, "apply pending migrations on startup")
	cmd.Flags().DurationVar(&opts.pruneInterval, "prune-interval", time.Hour, "interval between expired session sweeps (0 disables)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, opts *serveOptions, logger *slog.Logger) error {
	if opts.autoMigrate {
		if err := migrateUp(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	var ready atomic.Pointer[backend]
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, func(ctx context.Context) error {
			b := ready.Load()
			if b == nil {
				return errors.New("starting")
			}
			return b.Ping(ctx)
		}, logger)
		metrics = obsServer.Metrics()
	}

	var authMetrics auth.Metrics
	var pruned prunedRecorder
	if metrics != nil {
		authMetrics = metrics
		pruned = metrics
	}
	b, err := openBackend(ctx, cfg, logger, authMetrics)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Guest.Enabled {
		if err := b.accounts.EnsureGuest(ctx, cfg.Guest.Account()); err != nil {
			return err
		}
	}

	signer, err := auth.NewCookieSigner(cfg.Session.SigningKey)
	if err != nil {
		return err
	}

	routerCfg := api.Config{
		Accounts:      b.accounts,
		Todos:         b.todos,
		Signer:        signer,
		SecureCookies: cfg.TLS.Enabled,
		Logger:        logger,
		Version:       version,
	}
	if metrics != nil {
		routerCfg.Metrics = metrics
	}
	e, err := api.NewRouter(routerCfg)
	if err != nil {
		return oops.Code("ROUTER_INIT_FAILED").Wrap(err)
	}

	servers, err := buildServers(cfg, e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		go func() {
			logger.Info("http server listening", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
			var serveErr error
			if srv.TLSConfig != nil {
				serveErr = srv.ListenAndServeTLS("", "")
			} else {
				serveErr = srv.ListenAndServe()
			}
			if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				errChan <- fmt.Errorf("%s: %w", srv.Addr, serveErr)
			}
		}()
	}

	if opts.pruneInterval > 0 {
		go runPruner(ctx, b.sessions, opts.pruneInterval, pruned, logger)
	}

	ready.Store(b)
	logger.Info("lentos ready", "version", version, "session_backend", cfg.Session.Backend)

	var runErr error
	select {
	case err := <-errChan:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error stopping http server", "addr", srv.Addr, "error", err)
		}
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// buildServers returns the API server, plus the HTTP to HTTPS redirector
// when TLS is enabled.
func buildServers(cfg *config.Config, handler http.Handler) ([]*http.Server, error) {
	if !cfg.TLS.Enabled {
		return []*http.Server{{
			Addr:              cfg.Server.HTTPAddr(),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		}}, nil
	}

	hosts := append([]string{cfg.Server.Host}, cfg.TLS.Hosts...)
	cert, err := lentostls.LoadOrGenerate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.SelfSigned, hosts)
	if err != nil {
		return nil, err
	}

	return []*http.Server{
		{
			Addr:              cfg.Server.HTTPSAddr(),
			Handler:           handler,
			TLSConfig:         lentostls.ServerConfig(cert),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		{
			Addr:              cfg.Server.HTTPAddr(),
			Handler:           api.NewRedirector(cfg.Server.HTTPSPort),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// prunedRecorder counts swept sessions.
type prunedRecorder interface {
	Pruned(n int64)
}

// runPruner deletes expired sessions every interval until ctx ends.
func runPruner(ctx context.Context, sessions auth.SessionStore, interval time.Duration, rec prunedRecorder, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				errutil.LogErrorContext(ctx, logger, "session sweep failed", err)
				continue
			}
			if rec != nil {
				rec.Pruned(n)
			}
			if n > 0 {
				logger.InfoContext(ctx, "expired sessions pruned", "count", n)
			}
		}
	}
}

// monitorServerErrors cancels the context when a server reports an error.
// It exits when an error arrives, the channel closes, or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.ErrorContext(ctx, "server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
