package exchange

import (
	"net/http"
	"time"

	"github.com/openkite/goindiatrader/common"
	"github.com/openkite/goindiatrader/config"
	log "github.com/sirupsen/logrus"
)

// DefaultHTTPTimeout is the default HTTP request timeout for exchange
// endpoints
const DefaultHTTPTimeout = time.Second * 15

// APICredentials stores the account credentials required by the exchange.
// AccessToken holds the daily-expiring session token issued by the broker's
// external login flow.
type APICredentials struct {
	Key         string
	Secret      string
	AccessToken string
}

// APIEndpoints stores the URLs for REST endpoints
type APIEndpoints struct {
	URL        string
	URLDefault string
}

// API stores the exchange API settings
type API struct {
	AuthenticatedSupport bool
	Credentials          APICredentials
	Endpoints            APIEndpoints

	CredentialsValidator struct {
		RequiresKey         bool
		RequiresSecret      bool
		RequiresAccessToken bool
	}
}

// Base stores the individual exchange information
type Base struct {
	Name        string
	Enabled     bool
	Verbose     bool
	HTTPTimeout time.Duration
	HTTPClient  *http.Client
	API         API
}

// GetName returns the exchange name
func (b *Base) GetName() string {
	return b.Name
}

// IsEnabled returns whether the exchange is enabled
func (b *Base) IsEnabled() bool {
	return b.Enabled
}

// SetEnabled sets whether the exchange is enabled
func (b *Base) SetEnabled(enabled bool) {
	b.Enabled = enabled
}

// SetCredentials sets the account credentials
func (b *Base) SetCredentials(apiKey, apiSecret, accessToken string) {
	b.API.Credentials.Key = apiKey
	b.API.Credentials.Secret = apiSecret
	b.API.Credentials.AccessToken = accessToken
}

// ValidateCredentials returns whether the required credentials have been
// supplied
func (b *Base) ValidateCredentials() error {
	if b.API.CredentialsValidator.RequiresKey && b.API.Credentials.Key == "" {
		return ErrCredentialsAreEmpty
	}
	if b.API.CredentialsValidator.RequiresSecret && b.API.Credentials.Secret == "" {
		return ErrCredentialsAreEmpty
	}
	return nil
}

// SetAPIURL sets the API URL, falling back to the exchange default when the
// config does not override it
func (b *Base) SetAPIURL(cfg *config.ExchangeConfig) {
	if cfg.APIURL != "" {
		b.API.Endpoints.URL = cfg.APIURL
		return
	}
	b.API.Endpoints.URL = b.API.Endpoints.URLDefault
}

// SetupDefaults applies the common exchange configuration values onto the
// base
func (b *Base) SetupDefaults(cfg *config.ExchangeConfig) {
	b.Enabled = cfg.Enabled
	b.Verbose = cfg.Verbose

	if cfg.HTTPTimeout > 0 {
		b.HTTPTimeout = cfg.HTTPTimeout
	} else {
		b.HTTPTimeout = DefaultHTTPTimeout
	}
	b.HTTPClient = common.NewHTTPClientWithTimeout(b.HTTPTimeout)

	if cfg.APIKey != "" {
		b.SetCredentials(cfg.APIKey, cfg.APISecret, cfg.AccessToken)
		b.API.AuthenticatedSupport = cfg.AuthenticatedAPISupport
	}
	b.SetAPIURL(cfg)

	if b.Verbose {
		log.WithFields(log.Fields{
			"exchange": b.Name,
			"endpoint": b.API.Endpoints.URL,
		}).Debug("exchange defaults set")
	}
}

// FeeType custom type for calculating fees based on method
type FeeType uint8

// Fee types
const (
	EquityTradeFee FeeType = iota
	OfflineTradeFee
)

// FeeBuilder is the type which holds all parameters required to calculate a
// fee for an exchange
type FeeBuilder struct {
	FeeType       FeeType
	IsMaker       bool
	PurchasePrice float64
	Amount        float64
}
