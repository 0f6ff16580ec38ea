// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/config"
)

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored sessions",
	}

	var timeout time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Long: `Delete sessions whose expiry has passed. Sessions stored in Redis
expire on their own, so the redis backend always reports zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			b, err := openBackend(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer b.Close()

			return pruneSessions(ctx, cmd, b.sessions, cfg.Session.Backend)
		},
	}
	prune.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for the sweep")

	cmd.AddCommand(prune)
	return cmd
}

func pruneSessions(ctx context.Context, cmd *cobra.Command, sessions auth.SessionStore, backend string) error {
	n, err := sessions.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if backend == config.BackendRedis {
		cmd.Println("Redis sessions expire by TTL; nothing to prune")
		return nil
	}
	cmd.Printf("Pruned %d expired session(s)\n", n)
	return nil
}
