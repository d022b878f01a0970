package admin

import (
	"fmt"

	"github.com/brandpulse-ai/brandpulse/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  "Apply, roll back, and inspect database schema migrations",
	}

	cmd.AddCommand(MigrateUpCmd())
	cmd.AddCommand(MigrateDownCmd())
	cmd.AddCommand(MigrateVersionCmd())

	return cmd
}

func MigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(mustDatabaseURL())
		},
	}
}

func MigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			if err := m.Steps(-1); err != nil {
				return fmt.Errorf("failed to roll back migration: %w", err)
			}
			fmt.Println("rolled back one migration")
			return nil
		},
	}
}

func MigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err == migrate.ErrNilVersion {
				fmt.Println("no migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}
			fmt.Printf("version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	}
}

func newMigrator() (*migrate.Migrate, error) {
	m, err := migrate.New("file://migrations", mustDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func mustDatabaseURL() string {
	cfg := config.MustLoad()
	return cfg.DatabaseURL
}
