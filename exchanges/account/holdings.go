package account

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrHoldingsNotFound is returned when holdings for an exchange have not
	// been processed yet
	ErrHoldingsNotFound = errors.New("account holdings not found")

	service = &Service{accounts: make(map[string]*Holdings)}
)

// Balance is a sub type to store currency name and individual totals
type Balance struct {
	Currency string
	Total    float64
	Hold     float64
	Free     float64
}

// SubAccount defines a singular account type with asset holdings
type SubAccount struct {
	Currencies []Balance
}

// Holdings is a generic type to hold each exchange's holdings for all enabled
// currencies
type Holdings struct {
	Exchange string
	Accounts []SubAccount
}

// Service holds processed account holdings keyed by exchange name
type Service struct {
	accounts map[string]*Holdings
	mu       sync.RWMutex
}

// Process stores the account holdings for an exchange
func Process(h *Holdings) error {
	if h == nil {
		return errors.New("holdings cannot be nil")
	}
	if h.Exchange == "" {
		return errors.New("holdings exchange name not set")
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	cpy := *h
	service.accounts[h.Exchange] = &cpy
	return nil
}

// GetHoldings returns the holdings for an exchange
func GetHoldings(exchangeName string) (Holdings, error) {
	service.mu.RLock()
	defer service.mu.RUnlock()
	h, ok := service.accounts[exchangeName]
	if !ok {
		return Holdings{}, fmt.Errorf("%w for exchange %s", ErrHoldingsNotFound, exchangeName)
	}
	return *h, nil
}
