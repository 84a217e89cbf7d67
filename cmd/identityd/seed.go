// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/idkit/identityd/internal/identity"
	"github.com/idkit/identityd/internal/logging"
	"github.com/idkit/identityd/internal/seed"
)

// Default timeout for the seed command.
const defaultSeedTimeout = 30 * time.Second

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register the accounts listed in a seed file",
		Long: `Validate a YAML seed file and register every listed account that does
not already exist. Re-running the same file is a no-op. The file comes
from --seed-file or seed.file in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			validateOnly, _ := cmd.Flags().GetBool("validate-only")
			return runSeed(cmd, deps, timeout, validateOnly)
		},
	}

	cmd.Flags().Duration("timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().Bool("validate-only", false, "check the seed file without registering anything")

	return cmd
}

func runSeed(cmd *cobra.Command, deps *Deps, timeout time.Duration, validateOnly bool) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if cfg.Seed.File == "" {
		return oops.Code("CONFIG_INVALID").Errorf("a seed file is required (--seed-file or seed.file)")
	}

	f, err := seed.Load(cfg.Seed.File)
	if err != nil {
		return err //nolint:wrapcheck // seed errors carry codes and path
	}
	if validateOnly {
		cmd.Printf("%s: valid, %d user(s)\n", cfg.Seed.File, len(f.Users))
		return nil
	}

	logger, err := logging.Setup(serviceName, version, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}
	verifier, err := identity.NewPasswordVerifier(cfg.Auth.PasswordScheme)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	credStore, closeStore, err := deps.StoreOpener(ctx, cfg.Store)
	if err != nil {
		return oops.With("operation", "open credential store").Wrap(err)
	}
	defer closeStore()

	svc, err := identity.NewService(credStore, verifier, identity.WithLogger(logger))
	if err != nil {
		return oops.With("operation", "create identity service").Wrap(err)
	}

	res, err := seed.Apply(ctx, svc, credStore, f, logger)
	if err != nil {
		return oops.With("path", cfg.Seed.File).Wrap(err)
	}

	cmd.Printf("Seed complete: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}
