package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"funding-ledger/internal/fixtures"
	"funding-ledger/internal/httpapi"
	"funding-ledger/internal/ledger"
	"funding-ledger/internal/simulation"
	"funding-ledger/internal/tuning"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and revenue stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgFile)
		},
	}
}

func runServe(parent context.Context, cfgFile string) error {
	cfg, logger, err := bootstrap(cfgFile)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	watchSignals(cancel, done, logger)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	proxy, closeCache, err := buildProxy(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	deployer, closeNode, err := buildDeployer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNode()

	table, err := tuning.LoadTable(cfg.Tuning.TableFile)
	if err != nil {
		return err
	}

	hub := httpapi.NewHub(cfg.Stream.BufferSize, cfg.Server.AllowedOrigins, logger)
	svc := ledger.NewService(store, ledger.WithPublisher(hub), ledger.WithLogger(logger))

	var runner *simulation.Runner
	var simStatus httpapi.SimulationStatus
	if cfg.Simulation.Enabled {
		runner, err = newSimulationRunner(cfg, svc, logger)
		if err != nil {
			return err
		}
		simStatus = runner
	}

	api := httpapi.NewServer(httpapi.Options{
		Ledger:         svc,
		Proxy:          proxy,
		Deployer:       deployer,
		Tuner:          tuning.NewTuner(table),
		Seeder:         fixtures.NewSeeder(svc, logger),
		Hub:            hub,
		Simulation:     simStatus,
		StorageBackend: cfg.Storage.Backend,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if runner != nil {
		g.Go(func() error {
			if err := runner.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")

		// Hijacked websocket connections are not tracked by Shutdown.
		hub.Close()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// watchSignals cancels on the first SIGINT/SIGTERM and exits the process on
// the second.
func watchSignals(cancel context.CancelFunc, done <-chan struct{}, logger logrus.FieldLogger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Info("received signal, initiating graceful shutdown")
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-done:
		}
	}()
}
