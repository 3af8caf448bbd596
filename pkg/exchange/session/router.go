package session

import (
	"sync"

	"github.com/jmoon-dev/minicex/pkg/exchange/tape"
)

// TapeRouter implements order.TradeSink across markets: every registry
// fill print lands on the tape of the session trading that symbol.
// Prints for unattached symbols are dropped.
type TapeRouter struct {
	mu    sync.RWMutex
	tapes map[string]*tape.Tape
}

func NewTapeRouter() *TapeRouter {
	return &TapeRouter{tapes: make(map[string]*tape.Tape)}
}

// Attach binds a symbol to its session's tape.
func (r *TapeRouter) Attach(symbol string, t *tape.Tape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tapes[symbol] = t
}

// Record routes one fill print to the symbol's tape.
func (r *TapeRouter) Record(symbol string, tr tape.Trade) {
	r.mu.RLock()
	t := r.tapes[symbol]
	r.mu.RUnlock()
	if t != nil {
		t.Record(tr)
	}
}
