// Package market holds the static metadata of tradable pairs and the
// registry the markets page lists them from.
package market

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Status is the trading status of a market.
type Status int8

const (
	Active Status = iota
	Paused
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Market describes one tradable pair.
type Market struct {
	Symbol     string // "BTC-USDT"
	BaseAsset  string // "BTC"
	QuoteAsset string // "USDT"
	Status     Status

	// PriceStep and QuantityStep are display precision hints for the
	// front-end; the engine itself works on exact decimals.
	PriceStep    decimal.Decimal
	QuantityStep decimal.Decimal
}

// New creates a market with validation.
func New(symbol, base, quote string, priceStep, qtyStep decimal.Decimal) (*Market, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}
	if base == "" || quote == "" {
		return nil, fmt.Errorf("base and quote assets must be specified")
	}
	if priceStep.Sign() <= 0 || qtyStep.Sign() <= 0 {
		return nil, fmt.Errorf("price and quantity steps must be positive")
	}
	return &Market{
		Symbol:       symbol,
		BaseAsset:    base,
		QuoteAsset:   quote,
		Status:       Active,
		PriceStep:    priceStep,
		QuantityStep: qtyStep,
	}, nil
}

// Registry is a concurrency-safe collection of markets, listed in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]*Market
	symbols []string
}

func NewRegistry() *Registry {
	return &Registry{markets: make(map[string]*Market)}
}

// Register adds a market; re-registering a symbol is an error.
func (r *Registry) Register(m *Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.markets[m.Symbol]; ok {
		return fmt.Errorf("market %s already registered", m.Symbol)
	}
	r.markets[m.Symbol] = m
	r.symbols = append(r.symbols, m.Symbol)
	return nil
}

// Get returns the market for symbol.
func (r *Registry) Get(symbol string) (*Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.markets[symbol]
	return m, ok
}

// List returns all markets in registration order.
func (r *Registry) List() []*Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Market, 0, len(r.symbols))
	for _, s := range r.symbols {
		out = append(out, r.markets[s])
	}
	return out
}

// Defaults returns a registry pre-loaded with the standard USDT pairs.
func Defaults() *Registry {
	r := NewRegistry()
	cent := decimal.New(1, -2)       // 0.01
	tenth := decimal.New(1, -4)      // 0.0001
	for _, p := range []struct {
		symbol, base string
		priceStep    decimal.Decimal
	}{
		{"BTC-USDT", "BTC", cent},
		{"ETH-USDT", "ETH", cent},
		{"SOL-USDT", "SOL", cent},
		{"ADA-USDT", "ADA", tenth},
	} {
		m, err := New(p.symbol, p.base, "USDT", p.priceStep, tenth)
		if err != nil {
			panic(err) // static table, cannot fail
		}
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
	return r
}
