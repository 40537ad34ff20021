package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ExplorerConfig holds explorer backend API configurations.
type ExplorerConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	MaxRetries           int     `yaml:"maxRetries"`
	RateLimitRPS         float64 `yaml:"rateLimitRps"`
	BurstLimit           int     `yaml:"burstLimit"`
}

// MarketConfig holds price feed configurations.
type MarketConfig struct {
	BaseURL                string `yaml:"baseURL"`
	Currency               string `yaml:"currency"`
	RequestTimeoutMillis   int64  `yaml:"requestTimeoutMillis"`
	RefreshIntervalSeconds int    `yaml:"refreshIntervalSeconds"`
	MaxSymbolsPerRequest   int    `yaml:"maxSymbolsPerRequest"`
}

// BalancesConfig tunes the balance snapshot store.
type BalancesConfig struct {
	StaleTTLSeconds        int `yaml:"staleTtlSeconds"`
	GCIntervalSeconds      int `yaml:"gcIntervalSeconds"`
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds"`
}

// WalletConfig points at the wallet data files.
type WalletConfig struct {
	AddressesFile string `yaml:"addressesFile"`
	TokenListFile string `yaml:"tokenListFile"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"max_concurrent_routines"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Explorer    ExplorerConfig    `yaml:"explorer"`
	Market      MarketConfig      `yaml:"market"`
	Balances    BalancesConfig    `yaml:"balances"`
	Wallet      WalletConfig      `yaml:"wallet"`
	Performance PerformanceConfig `yaml:"performance"`
}

// LoadConfig reads and parses the YAML config at path, applying defaults
// for everything optional and validating the rest.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Logging: LoggingConfig{Level: "info"},
		Explorer: ExplorerConfig{
			RequestTimeoutMillis: 10000,
			MaxRetries:           3,
			RateLimitRPS:         5,
			BurstLimit:           10,
		},
		Market: MarketConfig{
			Currency:               "usd",
			RequestTimeoutMillis:   10000,
			RefreshIntervalSeconds: 60,
			MaxSymbolsPerRequest:   30,
		},
		Balances: BalancesConfig{
			StaleTTLSeconds:        60,
			GCIntervalSeconds:      300,
			RefreshIntervalSeconds: 30,
		},
		Wallet: WalletConfig{
			AddressesFile: "data/addresses.txt",
			TokenListFile: "data/token_list.json",
		},
		Performance: PerformanceConfig{MaxConcurrentRoutines: 5},
	}
}

func (c *Config) validate() error {
	if c.Explorer.BaseURL == "" {
		return fmt.Errorf("explorer.baseURL is required")
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.baseURL is required")
	}
	if c.Explorer.MaxRetries < 0 {
		return fmt.Errorf("explorer.maxRetries must not be negative")
	}
	if c.Performance.MaxConcurrentRoutines <= 0 {
		return fmt.Errorf("performance.max_concurrent_routines must be positive")
	}
	return nil
}
