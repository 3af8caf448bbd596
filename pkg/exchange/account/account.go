// Package account tracks the user's wallet: per-asset balances debited
// and credited as orders fill.
package account

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Account holds available balances per asset symbol.
type Account struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
}

func New() *Account {
	return &Account{balances: make(map[string]decimal.Decimal)}
}

// Deposit credits amount of asset.
func (a *Account) Deposit(asset string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[asset] = a.balances[asset].Add(amount)
	return nil
}

// Withdraw debits amount of asset, failing without mutation when the
// balance is short.
func (a *Account) Withdraw(asset string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	bal := a.balances[asset]
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.balances[asset] = bal.Sub(amount)
	return nil
}

// Balance returns the available balance of asset (zero when unknown).
func (a *Account) Balance(asset string) decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balances[asset]
}

// Balances returns a copy of all non-zero balances.
func (a *Account) Balances() map[string]decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(a.balances))
	for asset, bal := range a.balances {
		if !bal.IsZero() {
			out[asset] = bal
		}
	}
	return out
}
