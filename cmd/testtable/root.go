package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/testtable-service/internal/config"
	"github.com/deppfellow/testtable-service/internal/logger"
)

var (
	// cfg, log and loggerService are set up by PersistentPreRunE for every
	// subcommand.
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
)

var rootCmd = &cobra.Command{
	Use:   "testtable",
	Short: "TestTable CRUD service",
	Long: `testtable serves the TestTable resource over HTTP at /api/test-tables,
backed by PostgreSQL. Configuration is read from TESTTABLE_ environment
variables and an optional .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		loggerService.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return err
	}
	cfg = loaded

	loggerService = logger.NewLoggerService(cfg.Observability)
	log = logger.NewLoggerWithService(cfg.Observability, loggerService)
	return nil
}
