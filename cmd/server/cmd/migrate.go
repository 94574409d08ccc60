package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/events-api/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back schema migrations against DATABASE_URL.

Migrations are read from MIGRATIONS_PATH when set, otherwise the copies
compiled into the binary are used.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			return printMigrationVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := postgres.MigrateDown(cfg.Database.URL, cfg.Database.MigrationsPath, migrateDownSteps); err != nil {
				return err
			}
			return printMigrationVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}
	down.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return printMigrationVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printMigrationVersion(cmd *cobra.Command, databaseURL, migrationsPath string) error {
	version, dirty, err := postgres.MigrationVersion(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}
