// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lentos/lentos/internal/config"
	"github.com/lentos/lentos/internal/logging"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the lentos CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lentos",
		Short: "Lentos - a personal task server",
		Long: `Lentos serves a JSON API for personal todo lists with
cookie-based sessions, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default: XDG config dir)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	cmd.AddCommand(NewSessionsCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))

	return cmd
}

// load reads the configuration for cmd, honouring --config and any
// overriding flags the user set.
func (o *rootOptions) load(cmd *cobra.Command, skipValidation bool) (*config.Config, error) {
	return config.Load(cmd.Context(), config.Options{
		Path:           o.configFile,
		Flags:          cmd.Flags(),
		SkipValidation: skipValidation,
	})
}

// ensureDefaultConfig writes a default configuration file, with a fresh
// signing key, when no --config was given and the XDG file is missing.
func (o *rootOptions) ensureDefaultConfig(cmd *cobra.Command) error {
	if o.configFile != "" {
		return nil
	}
	path, created, err := config.EnsureDefault()
	if err != nil {
		return err
	}
	if created {
		cmd.PrintErrf("Wrote default configuration to %s\n", path)
	}
	return nil
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) *slog.Logger {
	return logging.SetDefault(logging.Options{
		Service: "lentos",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
}
