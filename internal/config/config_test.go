package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 8*time.Second, cfg.ChainData.CallTimeout)
	assert.Equal(t, 10, cfg.ChainData.TxLimit)
	assert.Equal(t, 5.0, cfg.Etherscan.RatePerSecond)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Simulation.Enabled)

	price, err := cfg.FallbackPrice()
	require.NoError(t, err)
	assert.Equal(t, "3500", price.String())
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "es-key")
	t.Setenv("COINGECKO_API_KEY", "cg-key")
	t.Setenv("ALCHEMY_API_KEY", "alc")
	t.Setenv("INFURA_PROJECT_ID", "inf")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/ledger")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "es-key", cfg.Etherscan.APIKey)
	assert.Equal(t, "cg-key", cfg.CoinGecko.APIKey)
	assert.Equal(t, "alc", cfg.Deploy.AlchemyAPIKey)
	assert.Equal(t, "inf", cfg.Deploy.InfuraProjectID)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Setenv("LEDGER_SERVER_ADDR", ":9000")
	t.Setenv("LEDGER_SIMULATION_ENABLED", "true")
	t.Setenv("LEDGER_SIMULATION_INTERVAL", "5s")
	t.Setenv("LEDGER_ETHERSCAN_API_KEY", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.Simulation.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Simulation.Interval)
	assert.Equal(t, "prefixed", cfg.Etherscan.APIKey)
}

func TestLoad_PrivateKeyIsIgnored(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "0xdeadbeef")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.PrivateKeyIgnored)
	_, present := os.LookupEnv("PRIVATE_KEY")
	assert.False(t, present, "PRIVATE_KEY should be scrubbed from the environment")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerd.yaml")
	data := []byte(`
server:
  addr: ":7070"
chaindata:
  call_timeout: 2s
  fallback_price: "3000.5"
tuning:
  table_file: /etc/ledgerd/tuning.yaml
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.ChainData.CallTimeout)
	assert.Equal(t, "/etc/ledgerd/tuning.yaml", cfg.Tuning.TableFile)
	price, err := cfg.FallbackPrice()
	require.NoError(t, err)
	assert.Equal(t, "3000.5", price.String())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = "postgres"; c.Storage.PostgresDSN = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero call timeout", func(c *Config) { c.ChainData.CallTimeout = 0 }},
		{"bad fallback price", func(c *Config) { c.ChainData.FallbackPrice = "free" }},
		{"negative rate", func(c *Config) { c.Etherscan.RatePerSecond = -1 }},
		{"zero buffer", func(c *Config) { c.Stream.BufferSize = 0 }},
		{"zero max amount", func(c *Config) { c.Simulation.MaxAmount = "0" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
