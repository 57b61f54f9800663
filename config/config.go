package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Environment variable names checked for credential overrides. Values set in
// the environment (or a .env file) take precedence over the config file so
// that secrets can be kept out of it.
const (
	EnvAPIKey      = "KITE_API_KEY"
	EnvAPISecret   = "KITE_API_SECRET"
	EnvAccessToken = "KITE_ACCESS_TOKEN"
)

// DefaultConfigFile is the conventional config file name
const DefaultConfigFile = "config.json"

var (
	// ErrExchangeNotFound is returned when an exchange config cannot be
	// located by name
	ErrExchangeNotFound = errors.New("exchange config not found")
	// ErrNoEnabledExchanges is returned when every configured exchange is
	// disabled
	ErrNoEnabledExchanges = errors.New("no exchanges enabled")
)

// Config holds the application wide configuration
type Config struct {
	Name      string           `json:"name"`
	LogLevel  string           `json:"logLevel"`
	Exchanges []ExchangeConfig `json:"exchanges"`
}

// ExchangeConfig holds the per exchange settings
type ExchangeConfig struct {
	Name                    string        `json:"name"`
	Enabled                 bool          `json:"enabled"`
	Verbose                 bool          `json:"verbose"`
	HTTPTimeout             time.Duration `json:"httpTimeout,omitempty"`
	APIURL                  string        `json:"apiUrl,omitempty"`
	AuthenticatedAPISupport bool          `json:"authenticatedApiSupport"`
	APIKey                  string        `json:"apiKey,omitempty"`
	APISecret               string        `json:"apiSecret,omitempty"`
	AccessToken             string        `json:"accessToken,omitempty"`
	TokenCachePath          string        `json:"tokenCachePath,omitempty"`
}

// GetExchangeConfig returns an exchange config by name
func (c *Config) GetExchangeConfig(name string) (*ExchangeConfig, error) {
	for i := range c.Exchanges {
		if c.Exchanges[i].Name == name {
			return &c.Exchanges[i], nil
		}
	}
	return nil, errors.Wrap(ErrExchangeNotFound, name)
}

// CountEnabledExchanges returns the number of exchanges that are enabled
func (c *Config) CountEnabledExchanges() int {
	counter := 0
	for i := range c.Exchanges {
		if c.Exchanges[i].Enabled {
			counter++
		}
	}
	return counter
}

// CheckExchangeConfigValues verifies exchange config values are correct and
// applies environment credential overrides
func (c *Config) CheckExchangeConfigValues() error {
	if len(c.Exchanges) == 0 {
		return errors.New("no exchange configs found")
	}
	if c.CountEnabledExchanges() == 0 {
		return ErrNoEnabledExchanges
	}

	for i := range c.Exchanges {
		e := &c.Exchanges[i]
		if e.Name == "" {
			return errors.New("exchange config name is empty")
		}
		if v := os.Getenv(EnvAPIKey); v != "" {
			e.APIKey = v
		}
		if v := os.Getenv(EnvAPISecret); v != "" {
			e.APISecret = v
		}
		if v := os.Getenv(EnvAccessToken); v != "" {
			e.AccessToken = v
		}
		if e.APIKey != "" && e.APISecret != "" {
			e.AuthenticatedAPISupport = true
		}
	}
	return nil
}

// LoadConfig reads the config file, applies .env and environment overrides
// and validates the result
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is not an error, the environment may be set by
	// other means
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Debug("no .env file loaded")
	}

	if configPath == "" {
		configPath = DefaultConfigFile
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config file")
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse config file")
	}

	if err := cfg.CheckExchangeConfigValues(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfig returns a config populated with the supported exchanges
// and their defaults
func GetDefaultConfig() *Config {
	return &Config{
		Name:     "goindiatrader",
		LogLevel: "info",
		Exchanges: []ExchangeConfig{
			{
				Name:    "Zerodha",
				Enabled: true,
			},
		},
	}
}

// SaveConfig writes the config to the supplied path
func (c *Config) SaveConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o644)
}
