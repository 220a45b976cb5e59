package main

import (
	"github.com/spf13/cobra"

	"github.com/deppfellow/testtable-service/internal/database"
)

var migrateTo int32

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Apply database migrations and exit.

Without --to the schema is brought to the newest migration. --to N moves it
up or down to version N; --to 0 removes the test_table schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return database.MigrateTo(cmd.Context(), &log, cfg, migrateTo)
	},
}

func init() {
	migrateCmd.Flags().Int32Var(&migrateTo, "to", database.Latest, "target schema version (default: latest)")
}
