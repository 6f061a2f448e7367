package configloader

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/peterhaasme/time-portfolio/internal/pkg/utils"
)

// Supported price feed providers.
const (
	ProviderNomics      = "nomics"
	ProviderDEXScreener = "dexscreener"
)

var (
	ErrMissingAPIKey       = errors.New("price feed API key is required")
	ErrUnknownProvider     = errors.New("unknown price feed provider")
	ErrMissingNetwork      = errors.New("network identifier is required")
	ErrInvalidRefreshTimer = errors.New("refresh interval must be positive")
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
	EnablePprof         bool   `yaml:"enablePprof"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// NetworkConfig selects the chain and may override its RPC endpoints.
type NetworkConfig struct {
	Identifier      string   `yaml:"identifier"`
	RPCURL          string   `yaml:"rpcURL"`
	FallbackRPCURLs []string `yaml:"fallbackRpcURLs"`
}

// RPCConfig tunes the chain client.
type RPCConfig struct {
	RateLimit                float64 `yaml:"rateLimit"` // requests per second
	BurstLimit               int     `yaml:"burstLimit"`
	ConnectionTimeoutSeconds int     `yaml:"connectionTimeoutSeconds"`
	CallTimeoutSeconds       int     `yaml:"callTimeoutSeconds"`
}

// NomicsConfig holds ticker API configuration.
type NomicsConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// DEXScreenerConfig holds DEXScreener API specific configurations.
type DEXScreenerConfig struct {
	BaseURL                  string `yaml:"baseURL"`
	RequestTimeoutMillis     int64  `yaml:"requestTimeoutMillis"`
	MaxTokensPerBatchRequest int    `yaml:"maxTokensPerBatchRequest"`
}

// PriceFeedConfig selects and configures the price source.
type PriceFeedConfig struct {
	Provider    string            `yaml:"provider"`
	Nomics      NomicsConfig      `yaml:"nomics"`
	DEXScreener DEXScreenerConfig `yaml:"dexScreener"`
}

// RetryConfig bounds retries of balance and price calls.
type RetryConfig struct {
	MaxAttempts           uint  `yaml:"maxAttempts"`
	InitialIntervalMillis int64 `yaml:"initialIntervalMillis"`
	MaxIntervalMillis     int64 `yaml:"maxIntervalMillis"`
	MaxElapsedMillis      int64 `yaml:"maxElapsedMillis"`
}

// Policy converts the config into a retry policy.
func (r RetryConfig) Policy() utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: time.Duration(r.InitialIntervalMillis) * time.Millisecond,
		MaxInterval:     time.Duration(r.MaxIntervalMillis) * time.Millisecond,
		MaxElapsed:      time.Duration(r.MaxElapsedMillis) * time.Millisecond,
	}
}

// PortfolioConfig holds aggregation settings.
type PortfolioConfig struct {
	MaxConcurrentRequests int   `yaml:"maxConcurrentRequests"`
	ValidateChecksum      *bool `yaml:"validateChecksum"`
}

// ChecksumEnabled reports whether EIP-55 checksums are enforced. Defaults to true.
func (p PortfolioConfig) ChecksumEnabled() bool {
	return p.ValidateChecksum == nil || *p.ValidateChecksum
}

// RefreshConfig drives the periodic recomputation.
type RefreshConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
	DebounceMillis  int `yaml:"debounceMillis"`
}

// Interval returns the refresh period.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// Debounce returns the input debounce window.
func (r RefreshConfig) Debounce() time.Duration {
	return time.Duration(r.DebounceMillis) * time.Millisecond
}

// WatchConfig bounds server-side watch sessions.
type WatchConfig struct {
	IdleTTLMinutes int `yaml:"idleTTLMinutes"`
	MaxSessions    int `yaml:"maxSessions"`
}

// FilesConfig holds data file locations.
type FilesConfig struct {
	TokensDir   string `yaml:"tokensDir"`
	WalletsFile string `yaml:"walletsFile"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Network   NetworkConfig   `yaml:"network"`
	RPC       RPCConfig       `yaml:"rpc"`
	PriceFeed PriceFeedConfig `yaml:"priceFeed"`
	Retry     RetryConfig     `yaml:"retry"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Watch     WatchConfig     `yaml:"watch"`
	Files     FilesConfig     `yaml:"files"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and fills in defaults.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data: %v", err)
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.IdleTimeoutSeconds <= 0 {
		c.Server.IdleTimeoutSeconds = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Network.Identifier == "" {
		c.Network.Identifier = "avalanche"
		logrus.Infof("Network.Identifier not set, defaulting to %s", c.Network.Identifier)
	}
	if c.RPC.RateLimit <= 0 {
		c.RPC.RateLimit = 10
		logrus.Infof("RPC.RateLimit not set, defaulting to %.0f req/s", c.RPC.RateLimit)
	}
	if c.RPC.BurstLimit <= 0 {
		c.RPC.BurstLimit = 5
	}
	if c.RPC.ConnectionTimeoutSeconds <= 0 {
		c.RPC.ConnectionTimeoutSeconds = 10
	}
	if c.RPC.CallTimeoutSeconds <= 0 {
		c.RPC.CallTimeoutSeconds = 10
	}

	if c.PriceFeed.Provider == "" {
		c.PriceFeed.Provider = ProviderNomics
		logrus.Infof("PriceFeed.Provider not set, defaulting to %s", c.PriceFeed.Provider)
	}
	c.PriceFeed.Provider = strings.ToLower(c.PriceFeed.Provider)
	if c.PriceFeed.Nomics.BaseURL == "" {
		c.PriceFeed.Nomics.BaseURL = "https://api.nomics.com/v1"
	}
	if c.PriceFeed.Nomics.RequestTimeoutMillis <= 0 {
		c.PriceFeed.Nomics.RequestTimeoutMillis = 10000
	}
	if c.PriceFeed.DEXScreener.BaseURL == "" {
		c.PriceFeed.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", c.PriceFeed.DEXScreener.BaseURL)
	}
	if c.PriceFeed.DEXScreener.RequestTimeoutMillis <= 0 {
		c.PriceFeed.DEXScreener.RequestTimeoutMillis = 10000
	}
	if c.PriceFeed.DEXScreener.MaxTokensPerBatchRequest <= 0 {
		c.PriceFeed.DEXScreener.MaxTokensPerBatchRequest = 30 // лимит DEXScreener
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialIntervalMillis <= 0 {
		c.Retry.InitialIntervalMillis = 250
	}
	if c.Retry.MaxIntervalMillis <= 0 {
		c.Retry.MaxIntervalMillis = 2000
	}
	if c.Retry.MaxElapsedMillis <= 0 {
		c.Retry.MaxElapsedMillis = 10000
	}

	if c.Portfolio.MaxConcurrentRequests <= 0 {
		c.Portfolio.MaxConcurrentRequests = 4
	}
	if c.Refresh.IntervalSeconds <= 0 {
		c.Refresh.IntervalSeconds = 60
		logrus.Infof("Refresh.IntervalSeconds not set, defaulting to %d", c.Refresh.IntervalSeconds)
	}
	if c.Refresh.DebounceMillis < 0 {
		c.Refresh.DebounceMillis = 0
	}
	if c.Watch.IdleTTLMinutes <= 0 {
		c.Watch.IdleTTLMinutes = 30
	}
	if c.Watch.MaxSessions <= 0 {
		c.Watch.MaxSessions = 100
	}
	if c.Files.TokensDir == "" {
		c.Files.TokensDir = "data/tokens"
	}
	if c.Files.WalletsFile == "" {
		c.Files.WalletsFile = "data/wallets.txt"
	}
}

// Validate checks fields that have no sensible default.
func (c *Config) Validate() error {
	if c.Network.Identifier == "" {
		return ErrMissingNetwork
	}
	if c.Refresh.IntervalSeconds <= 0 {
		return ErrInvalidRefreshTimer
	}
	switch c.PriceFeed.Provider {
	case ProviderNomics:
		if c.PriceFeed.Nomics.APIKey == "" {
			return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, ProviderNomics)
		}
	case ProviderDEXScreener:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.PriceFeed.Provider)
	}
	return nil
}
