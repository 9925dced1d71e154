// Package config loads ledgerd settings from defaults, an optional YAML file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every setting in the environment, e.g. LEDGER_SERVER_ADDR.
const EnvPrefix = "LEDGER"

// privateKeyEnv is refused. Its value is never read.
const privateKeyEnv = "PRIVATE_KEY"

type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Etherscan   EtherscanConfig  `mapstructure:"etherscan"`
	CoinGecko   CoinGeckoConfig  `mapstructure:"coingecko"`
	ChainData   ChainDataConfig  `mapstructure:"chaindata"`
	Deploy      DeployConfig     `mapstructure:"deploy"`
	Tuning      TuningConfig     `mapstructure:"tuning"`
	Simulation  SimulationConfig `mapstructure:"simulation"`
	Stream      StreamConfig     `mapstructure:"stream"`

	// PrivateKeyIgnored is set when PRIVATE_KEY was present in the environment.
	PrivateKeyIgnored bool `mapstructure:"-"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // memory | postgres
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // empty disables the redis price cache
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json; empty picks by environment
}

type EtherscanConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type CoinGeckoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ChainDataConfig struct {
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
	TxLimit       int           `mapstructure:"tx_limit"`
	PriceTTL      time.Duration `mapstructure:"price_ttl"`
	FallbackPrice string        `mapstructure:"fallback_price"`
}

type DeployConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	AlchemyAPIKey   string `mapstructure:"alchemy_api_key"`
	InfuraProjectID string `mapstructure:"infura_project_id"`
	ExplorerURL     string `mapstructure:"explorer_url"`
}

type TuningConfig struct {
	TableFile string `mapstructure:"table_file"`
}

type SimulationConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Seed      int64         `mapstructure:"seed"`
	MaxAmount string        `mapstructure:"max_amount"`
}

type StreamConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// legacyEnv maps settings to the unprefixed variable names deployments already use.
var legacyEnv = map[string]string{
	"environment":              "NODE_ENV",
	"storage.postgres_dsn":     "POSTGRES_DSN",
	"redis.addr":               "REDIS_ADDR",
	"etherscan.api_key":        "ETHERSCAN_API_KEY",
	"coingecko.api_key":        "COINGECKO_API_KEY",
	"deploy.rpc_url":           "ETH_RPC_URL",
	"deploy.alchemy_api_key":   "ALCHEMY_API_KEY",
	"deploy.infura_project_id": "INFURA_PROJECT_ID",
}

// Load reads configuration. configPath may be empty, in which case
// ./ledgerd.yaml and ./config/ledgerd.yaml are tried.
func Load(configPath string) (*Config, error) {
	// Best-effort .env loading; existing variables win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("ledgerd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if _, ok := os.LookupEnv(privateKeyEnv); ok {
		cfg.PrivateKeyIgnored = true
		_ = os.Unsetenv(privateKeyEnv)
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
		if cfg.IsProduction() {
			cfg.Logging.Format = "json"
		}
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
		if cfg.Storage.PostgresDSN != "" {
			cfg.Storage.Backend = "postgres"
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("storage.backend", "")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")

	v.SetDefault("etherscan.api_key", "")
	v.SetDefault("etherscan.base_url", "https://api.etherscan.io/api")
	v.SetDefault("etherscan.rate_per_second", 5.0)
	v.SetDefault("etherscan.max_retries", 3)
	v.SetDefault("etherscan.retry_delay", 500*time.Millisecond)

	v.SetDefault("coingecko.api_key", "")
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")

	v.SetDefault("chaindata.call_timeout", 8*time.Second)
	v.SetDefault("chaindata.tx_limit", 10)
	v.SetDefault("chaindata.price_ttl", 60*time.Second)
	v.SetDefault("chaindata.fallback_price", "3500")

	v.SetDefault("deploy.rpc_url", "")
	v.SetDefault("deploy.alchemy_api_key", "")
	v.SetDefault("deploy.infura_project_id", "")
	v.SetDefault("deploy.explorer_url", "https://etherscan.io")

	v.SetDefault("tuning.table_file", "")

	v.SetDefault("simulation.enabled", false)
	v.SetDefault("simulation.interval", 30*time.Second)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.max_amount", "0.05")

	v.SetDefault("stream.buffer_size", 64)
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be memory or postgres, got %q", c.Storage.Backend))
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}

	if c.Etherscan.RatePerSecond < 0 {
		errs = append(errs, errors.New("etherscan.rate_per_second must not be negative"))
	}
	if c.ChainData.CallTimeout <= 0 {
		errs = append(errs, errors.New("chaindata.call_timeout must be positive"))
	}
	if c.ChainData.TxLimit <= 0 {
		errs = append(errs, errors.New("chaindata.tx_limit must be positive"))
	}
	if _, err := c.FallbackPrice(); err != nil {
		errs = append(errs, err)
	}

	if c.Simulation.Interval <= 0 {
		errs = append(errs, errors.New("simulation.interval must be positive"))
	}
	if _, err := c.SimulationMaxAmount(); err != nil {
		errs = append(errs, err)
	}
	if c.Stream.BufferSize <= 0 {
		errs = append(errs, errors.New("stream.buffer_size must be positive"))
	}

	return errors.Join(errs...)
}

// FallbackPrice parses chaindata.fallback_price.
func (c *Config) FallbackPrice() (decimal.Decimal, error) {
	return positiveDecimal("chaindata.fallback_price", c.ChainData.FallbackPrice)
}

// SimulationMaxAmount parses simulation.max_amount.
func (c *Config) SimulationMaxAmount() (decimal.Decimal, error) {
	return positiveDecimal("simulation.max_amount", c.Simulation.MaxAmount)
}

func positiveDecimal(key, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a decimal", key, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
