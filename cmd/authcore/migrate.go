// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/store"
)

// migrator is the part of store.Migrator the CLI drives.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Pending() ([]uint, error)
	Close() error
}

// newMigrator is swapped out in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// lookupEnv is swapped out in tests. nil means os.LookupEnv.
var lookupEnv config.LookupEnv

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL migrations.`,
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string (or DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("Migrations applied")
				return nil
			})
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops the users table)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all accounts; rerun with --yes")
			}
			return withMigrator(cmd, func(m migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().Bool("yes", false, "confirm dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied and pending migration versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				pending, err := m.Pending()
				if err != nil {
					return err
				}
				cmd.Printf("version: %d\n", v)
				cmd.Printf("dirty: %t\n", dirty)
				cmd.Printf("pending: %v\n", pending)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator resolves the database URL through the usual config layers,
// runs fn, and closes the migrator.
func withMigrator(cmd *cobra.Command, fn func(migrator) error) (err error) {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cmd.Flags(), path, lookupEnv)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url is required")
	}

	m, err := newMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(m)
}
