package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Apply the embedded goose migrations to PostgreSQL, or create the
SQLite tables and indexes, then exit.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(nil)
	if err != nil {
		return err
	}

	cmd.Println("Running migrations...")
	st, err := openStores(cmd.Context(), cfg, logger)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	st.close()

	cmd.Println("Migrations completed successfully")
	return nil
}
