package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"funding-ledger/internal/config"
	"funding-ledger/internal/ledger"
	"funding-ledger/internal/simulation"
)

func newSimulateCmd(cfgFile *string) *cobra.Command {
	var rounds int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Record simulated revenue for every active bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rounds <= 0 {
				return fmt.Errorf("--rounds must be positive, got %d", rounds)
			}
			cfg, logger, err := bootstrap(*cfgFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := ledger.NewService(store, ledger.WithLogger(logger))
			runner, err := newSimulationRunner(cfg, svc, logger)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i := 0; i < rounds; i++ {
				res, err := runner.RunRound(ctx)
				if err != nil {
					return fmt.Errorf("round %d: %w", i+1, err)
				}
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 1, "number of rounds to run")
	return cmd
}

func newSimulationRunner(cfg *config.Config, svc *ledger.Service, logger logrus.FieldLogger) (*simulation.Runner, error) {
	maxAmount, err := cfg.SimulationMaxAmount()
	if err != nil {
		return nil, err
	}
	return simulation.NewRunner(simulation.RunnerOptions{
		Recorder:  svc,
		Interval:  cfg.Simulation.Interval,
		Seed:      cfg.Simulation.Seed,
		MaxAmount: maxAmount,
		Logger:    logger,
	}), nil
}
