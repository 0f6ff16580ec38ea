// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/lentos/lentos/internal/config"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration, with a freshly generated session
signing key, to --config or the XDG config directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Init(root.configFile, force)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}
