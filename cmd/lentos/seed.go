// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Default timeout for the seed command.
const defaultSeedTimeout = 30 * time.Second

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(root *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the guest account",
		Long: `Creates the configured guest account if it does not exist.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			logger := setupLogging(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cmd.Println("Connecting to database...")
			b, err := openBackend(ctx, cfg, logger, nil)
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
			}
			defer b.Close()

			if err := b.accounts.EnsureGuest(ctx, cfg.Guest.Account()); err != nil {
				return err
			}
			cmd.Printf("Guest account %s is present\n", cfg.Guest.Email)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}
