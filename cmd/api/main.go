package main

import (
	"fmt"
	"os"

	"github.com/01moynul/farmers-market-api/internal/config"
	"github.com/01moynul/farmers-market-api/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand wires the subcommands. Running the binary with no
// subcommand starts the server.
func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:           "farmers-market-api",
		Short:         "REST API for farmers, their products and users",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newMigrateCommand(), newTokenCommand())
	return root
}

// bootstrap loads the configuration and builds the logger every command shares.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	if !cfg.DotEnvLoaded {
		log.Warn("No .env file found, relying on process environment variables")
	}
	return cfg, log, nil
}
