// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

package main

import (
	"log/slog"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/idkit/identityd/internal/config"
	"github.com/idkit/identityd/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its children.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long: `Apply, revert and inspect the PostgreSQL schema migrations embedded
in the binary. Running migrate without a subcommand applies all pending
migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateUp)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateUp)
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations (drops identity tables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				return runMigrateDown(cmd, m, steps, all)
			})
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to revert")
	down.Flags().Bool("all", false, "revert every migration, deleting all users and profiles")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateStatus)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, runMigrateVersion)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long: `Record VERSION as the current schema version and clear the dirty flag.
Use this only after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return withMigrator(cmd, deps, func(cmd *cobra.Command, m Migrator) error {
				if err := m.Force(target); err != nil {
					return err //nolint:wrapcheck // migrator errors carry codes
				}
				cmd.Printf("Forced schema version %d\n", target)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, deps *Deps, fn func(*cobra.Command, Migrator) error) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return oops.Code("CONFIG_INVALID").
			With("driver", cfg.Store.Driver).
			Errorf("migrations require the postgres store driver")
	}

	m, err := deps.MigratorFactory(cfg.Store.DatabaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	return fn(cmd, m)
}

func runMigrateUp(cmd *cobra.Command, m Migrator) error {
	before, _, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}
	if err := m.Up(); err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}
	after, _, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}

	if before == after {
		cmd.Printf("Schema already at version %d\n", after)
		return nil
	}
	cmd.Printf("Migrated schema from version %d to %d\n", before, after)
	return nil
}

func runMigrateDown(cmd *cobra.Command, m Migrator, steps int, all bool) error {
	if all {
		if err := m.Down(); err != nil {
			return err //nolint:wrapcheck // migrator errors carry codes
		}
		cmd.Println("Reverted all migrations")
		return nil
	}
	if steps < 1 {
		return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be at least 1")
	}
	if err := m.Steps(-steps); err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}
	current, _, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}
	cmd.Printf("Reverted %d migration(s); schema now at version %d\n", steps, current)
	return nil
}

func runMigrateStatus(cmd *cobra.Command, m Migrator) error {
	st, err := m.Status()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}

	cmd.Printf("Current version: %d", st.Version)
	if st.Dirty {
		cmd.Print(" (dirty: run 'identityd migrate force VERSION' after repairing)")
	}
	cmd.Println()

	printVersions(cmd, "Applied", st.Applied)
	printVersions(cmd, "Pending", st.Pending)
	return nil
}

func printVersions(cmd *cobra.Command, label string, versions []uint) {
	if len(versions) == 0 {
		cmd.Printf("%s: none\n", label)
		return
	}
	cmd.Printf("%s:\n", label)
	for _, v := range versions {
		name, err := store.MigrationName(v)
		if err != nil || name == "" {
			name = strconv.FormatUint(uint64(v), 10)
		}
		cmd.Printf("  %s\n", name)
	}
}

func runMigrateVersion(cmd *cobra.Command, m Migrator) error {
	current, dirty, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry codes
	}
	if dirty {
		cmd.Printf("%d (dirty)\n", current)
		return nil
	}
	cmd.Printf("%d\n", current)
	return nil
}
