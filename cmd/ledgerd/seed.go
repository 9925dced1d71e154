package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"funding-ledger/internal/fixtures"
	"funding-ledger/internal/ledger"
)

func newSeedCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the illustrative bots, funding sources and LP positions into an empty ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(*cfgFile)
			if err != nil {
				return err
			}
			if cfg.Storage.Backend == "memory" {
				logger.Warn("seeding in-memory storage; the data is discarded when the command exits")
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := ledger.NewService(store, ledger.WithLogger(logger))
			res, err := fixtures.NewSeeder(svc, logger).Seed(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
