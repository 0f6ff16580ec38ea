// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lentos/lentos/internal/store"
)

// migrator is the subset of store.Migrator used by the migrate commands.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]store.Migration, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}

	var yes bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all data)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("refusing to drop all tables without --yes")
			}
			return withMigrator(cmd, root, func(m migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("All migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&yes, "yes", false, "confirm dropping all tables")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, root, func(m migrator) error {
					return applyPending(cmd, m)
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, root, func(m migrator) error {
					return printVersion(cmd, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Mark VERSION as applied without running it",
			Long: `Record VERSION as the current schema version and clear the dirty
flag. Use it after repairing a failed migration by hand.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseForceVersion(args[0])
				if err != nil {
					return err
				}
				return withMigrator(cmd, root, func(m migrator) error {
					if err := m.Force(v); err != nil {
						return err
					}
					cmd.Printf("Forced schema version %d\n", v)
					return nil
				})
			},
		},
	)

	return cmd
}

func withMigrator(cmd *cobra.Command, root *rootOptions, fn func(migrator) error) error {
	cfg, err := root.load(cmd, true)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}

	m, err := newMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Debug("error closing migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func applyPending(cmd *cobra.Command, m migrator) error {
	pending, err := m.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("Schema is up to date")
		return nil
	}
	for _, mig := range pending {
		cmd.Printf("Applying %06d_%s\n", mig.Version, mig.Name)
	}
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Printf("Applied %d migration(s)\n", len(pending))
	return nil
}

func printVersion(cmd *cobra.Command, m migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	status := "clean"
	if dirty {
		status = "dirty"
	}
	cmd.Printf("Schema version %d (%s)\n", v, status)
	return nil
}

// migrateUp applies pending migrations on server startup.
func migrateUp(databaseURL string, logger *slog.Logger) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Debug("error closing migrator", "error", closeErr)
		}
	}()

	pending, err := m.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	if err := m.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied", "count", len(pending))
	return nil
}

// parseForceVersion parses the force argument as a non-negative integer.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be a non-negative integer, got %q", s)
	}
	return v, nil
}
