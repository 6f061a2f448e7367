package configloader

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Env holds secrets and overrides read from the environment.
type Env struct {
	ConfigPath   string `envconfig:"CONFIG_PATH" default:"configs/config.yaml"`
	PriceAPIKey  string `envconfig:"PORTFOLIO_PRICE_API_KEY"`
	NomicsAPIKey string `envconfig:"NOMICS_API_KEY"`
	RPCURL       string `envconfig:"PORTFOLIO_RPC_URL"`
	LogLevel     string `envconfig:"PORTFOLIO_LOG_LEVEL"`
	Port         string `envconfig:"PORTFOLIO_PORT"`
}

// LoadEnv reads .env files (if present) then the process environment.
// godotenv never overrides variables that are already set.
func LoadEnv(envFiles ...string) (*Env, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logrus.Warnf("Failed to load env file %s: %v", f, err)
		} else {
			logrus.Infof("Loaded env file %s", f)
		}
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &env, nil
}

// ApplyEnv overlays environment values onto the file configuration.
func (c *Config) ApplyEnv(env *Env) {
	if env == nil {
		return
	}
	if key := firstNonEmpty(env.PriceAPIKey, env.NomicsAPIKey); key != "" {
		c.PriceFeed.Nomics.APIKey = key
	}
	if env.RPCURL != "" {
		c.Network.RPCURL = env.RPCURL
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.Port != "" {
		c.Server.Port = env.Port
	}
}

// LoadAll resolves the environment, loads the YAML file it points at, applies
// the overrides and validates the result.
func LoadAll(envFiles ...string) (*Config, error) {
	env, err := LoadEnv(envFiles...)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(env.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
