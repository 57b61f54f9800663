package ticker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTickerNotFound is returned when a cached ticker cannot be located
	ErrTickerNotFound = errors.New("ticker not found")

	service = &Service{tickers: make(map[string]map[string]*Price)}
)

// Price struct stores the currency pair and pricing information
type Price struct {
	Pair          string    `json:"pair"`
	Last          float64   `json:"last"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	Close         float64   `json:"close"`
	PreviousClose float64   `json:"previousClose"`
	Bid           float64   `json:"bid"`
	BidSize       float64   `json:"bidSize"`
	Ask           float64   `json:"ask"`
	AskSize       float64   `json:"askSize"`
	Volume        float64   `json:"volume"`
	ExchangeName  string    `json:"exchange"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Service holds tickers for each exchange keyed by unified pair
type Service struct {
	tickers map[string]map[string]*Price
	mu      sync.RWMutex
}

// ProcessTicker stores a new ticker in the service so repeat fetches can be
// served from memory
func ProcessTicker(p *Price) error {
	if p.ExchangeName == "" {
		return errors.New("ticker exchange name not set")
	}
	if p.Pair == "" {
		return fmt.Errorf("%s ticker pair not set", p.ExchangeName)
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = time.Now()
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	m, ok := service.tickers[p.ExchangeName]
	if !ok {
		m = make(map[string]*Price)
		service.tickers[p.ExchangeName] = m
	}
	cpy := *p
	m[p.Pair] = &cpy
	return nil
}

// GetTicker checks and returns a requested ticker if it exists
func GetTicker(exchangeName, pair string) (*Price, error) {
	service.mu.RLock()
	defer service.mu.RUnlock()
	m, ok := service.tickers[exchangeName]
	if !ok {
		return nil, fmt.Errorf("%w for exchange %s", ErrTickerNotFound, exchangeName)
	}
	p, ok := m[pair]
	if !ok {
		return nil, fmt.Errorf("%w for pair %s", ErrTickerNotFound, pair)
	}
	cpy := *p
	return &cpy, nil
}
