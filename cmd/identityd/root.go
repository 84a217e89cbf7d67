// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/idkit/identityd/internal/config"
	"github.com/idkit/identityd/internal/xdg"
)

// NewRootCmd creates the root command. A nil deps uses the defaults.
func NewRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "identityd",
		Short: "identityd - a minimal identity service",
		Long: `identityd registers users, authenticates username/password pairs,
issues opaque session tokens and serves the profile behind a token.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default $XDG_CONFIG_HOME/identityd/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewSeedCmd(deps))
	cmd.AddCommand(NewStatusCmd(deps))

	return cmd
}

// loadConfig reads configuration for cmd from its --config file (or the
// XDG default), the environment and its flags.
func loadConfig(cmd *cobra.Command, deps *Deps) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		path = xdg.DefaultConfigFile(deps.Getenv)
	}
	return config.Load(path, cmd.Flags(), deps.Getenv) //nolint:wrapcheck // config errors carry codes
}
