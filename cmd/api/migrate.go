package main

import (
	"context"

	"github.com/01moynul/farmers-market-api/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the farmers, products and users tables if they are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			return database.Migrate(ctx, db, log)
		},
	}
}
