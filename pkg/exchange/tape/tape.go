// Package tape keeps the bounded, newest-first log of executed trades
// shown in the recent-trades panel.
package tape

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmoon-dev/minicex/pkg/exchange/book"
)

// DefaultCapacity bounds a tape when no explicit capacity is given.
const DefaultCapacity = 256

// Trade is one executed trade print. Immutable once recorded.
type Trade struct {
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Side      book.Side // aggressor side
	Timestamp time.Time
}

// Tape is an append-only bounded trade log. Recording never fails; once
// capacity is exceeded the oldest print is evicted.
type Tape struct {
	mu       sync.RWMutex
	trades   []Trade // oldest first; reads walk backwards
	capacity int
}

func New(capacity int) *Tape {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tape{capacity: capacity}
}

// Record appends a trade, evicting the oldest print when full.
func (t *Tape) Record(tr Trade) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.trades) == t.capacity {
		copy(t.trades, t.trades[1:])
		t.trades = t.trades[:len(t.trades)-1]
	}
	t.trades = append(t.trades, tr)
}

// Recent returns up to n trades, newest first. The slice is a copy:
// callers may iterate it any number of times without consuming state.
func (t *Tape) Recent(n int) []Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n > len(t.trades) {
		n = len(t.trades)
	}
	out := make([]Trade, 0, n)
	for i := len(t.trades) - 1; i >= len(t.trades)-n; i-- {
		out = append(out, t.trades[i])
	}
	return out
}

// Len returns the number of trades currently held.
func (t *Tape) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.trades)
}

// Capacity returns the fixed bound of the tape.
func (t *Tape) Capacity() int {
	return t.capacity
}
