package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command of the CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "student-records",
		Short:        "Student records API with JWT authentication",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
