package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"funding-ledger/internal/storage/migrations"
	pgstore "funding-ledger/internal/storage/postgres"
)

func newMigrateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(*cfgFile)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend != "postgres" {
				return errors.New("migrate requires the postgres backend (set POSTGRES_DSN)")
			}

			ctx := cmd.Context()
			pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return err
			}
			for _, file := range applied {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			logger.WithField("count", len(applied)).Info("migrations applied")
			return nil
		},
	}
}
