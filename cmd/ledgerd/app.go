package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"funding-ledger/internal/chaindata"
	"funding-ledger/internal/config"
	"funding-ledger/internal/deploy"
	"funding-ledger/internal/logging"
	"funding-ledger/internal/storage"
	"funding-ledger/internal/storage/memory"
	"funding-ledger/internal/storage/migrations"
	pgstore "funding-ledger/internal/storage/postgres"
)

// bootstrap loads and validates configuration and builds the logger.
func bootstrap(cfgFile string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}

	if cfg.PrivateKeyIgnored {
		logger.Warn("PRIVATE_KEY found in the environment and removed without being read; " +
			"server-side signing is not supported, sign deployments in the client " +
			"and relay them through /api/deploy/prepare and /api/deploy/submit")
	}
	return cfg, logger, nil
}

// openStore creates the configured ledger store. Postgres stores are migrated
// before use.
func openStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (storage.Ledger, func(), error) {
	if cfg.Storage.Backend != "postgres" {
		logger.Info("using in-memory storage")
		return memory.NewLedger(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.WithField("migrations", applied).Info("using postgres storage")
	return pgstore.NewLedger(pool), pool.Close, nil
}

// buildProxy wires the Etherscan and CoinGecko clients behind the fan-out
// proxy. The redis price cache is used when configured and reachable.
func buildProxy(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*chaindata.Proxy, func(), error) {
	httpClient := chaindata.NewHTTPClient(
		chaindata.WithTimeout(cfg.ChainData.CallTimeout),
		chaindata.WithMaxRetries(cfg.Etherscan.MaxRetries),
		chaindata.WithRetryDelay(cfg.Etherscan.RetryDelay),
	)
	etherscan := chaindata.NewEtherscan(httpClient, cfg.Etherscan.BaseURL, cfg.Etherscan.APIKey, cfg.Etherscan.RatePerSecond)
	coingecko := chaindata.NewCoinGecko(httpClient, cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey)

	if !etherscan.Configured() {
		logger.Warn("ETHERSCAN_API_KEY not set; wallet and contract lookups will report not_configured")
	}

	var cache chaindata.PriceCache = chaindata.NewMemoryPriceCache()
	closeCache := func() {}
	if cfg.Redis.Addr != "" {
		rc, err := chaindata.NewRedisPriceCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-memory price cache")
		} else {
			cache = rc
			closeCache = func() { _ = rc.Close() }
		}
	}

	fallback, err := cfg.FallbackPrice()
	if err != nil {
		closeCache()
		return nil, nil, err
	}

	proxy := chaindata.NewProxy(etherscan, coingecko, cache, chaindata.ProxyConfig{
		CallTimeout:   cfg.ChainData.CallTimeout,
		TxLimit:       cfg.ChainData.TxLimit,
		PriceTTL:      cfg.ChainData.PriceTTL,
		FallbackPrice: fallback,
	}, logger)
	return proxy, closeCache, nil
}

// buildDeployer connects the deployment relay to an Ethereum node. Without a
// node the deploy endpoints answer 503.
func buildDeployer(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*deploy.Deployer, func(), error) {
	rpcURL := deploy.ResolveRPCURL(cfg.Deploy.RPCURL, cfg.Deploy.AlchemyAPIKey, cfg.Deploy.InfuraProjectID)
	client, err := deploy.Dial(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info("no ethereum node configured; deploy endpoints disabled")
		return deploy.NewDeployer(nil, cfg.Deploy.ExplorerURL, logger), func() {}, nil
	}
	return deploy.NewDeployer(client, cfg.Deploy.ExplorerURL, logger), client.Close, nil
}
