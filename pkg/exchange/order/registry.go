package order

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmoon-dev/minicex/pkg/exchange/tape"
)

// TradeSink receives the trade print produced by every fill. The trading
// session routes prints to the tape of the order's market.
type TradeSink interface {
	Record(symbol string, tr tape.Trade)
}

// Registry tracks a user's orders: the open set mutated by fills and
// cancels, and the closed set kept for the history view. The registry is
// owned by the user session; trading sessions reference it for matching
// but never own it.
type Registry struct {
	mu     sync.RWMutex
	open   map[string]*Order
	closed map[string]*Order
	ids    []string // registration order, for history listings
	sink   TradeSink
}

// NewRegistry creates an empty registry. sink may be nil, in which case
// fill prints are not forwarded anywhere.
func NewRegistry(sink TradeSink) *Registry {
	return &Registry{
		open:   make(map[string]*Order),
		closed: make(map[string]*Order),
		sink:   sink,
	}
}

// Register inserts a validated order under a freshly generated id and
// returns the id. ErrDuplicateOrder cannot occur with a correct id
// generator; it is surfaced as an assertion on corrupted state.
func (r *Registry) Register(o *Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	if _, ok := r.open[id]; ok {
		return "", ErrDuplicateOrder
	}
	if _, ok := r.closed[id]; ok {
		return "", ErrDuplicateOrder
	}

	cp := *o
	cp.ID = id
	cp.Status = Open
	cp.FilledQuantity = decimal.Decimal{}
	r.open[id] = &cp
	r.ids = append(r.ids, id)
	return id, nil
}

// ApplyFill accumulates a fill on an open order, records the trade print,
// and advances the status: Filled exactly when the requested quantity is
// reached. Unknown or already-terminal ids fail with ErrUnknownOrder; a
// fill exceeding the remaining quantity is an invariant breach and fails
// with ErrOverfillAttempt without mutating the order.
func (r *Registry) ApplyFill(id string, quantity, price decimal.Decimal) (Order, error) {
	if quantity.Sign() <= 0 {
		return Order{}, ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.open[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	if quantity.GreaterThan(o.Remaining()) {
		return Order{}, ErrOverfillAttempt
	}

	now := time.Now()
	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	o.UpdatedAt = now
	if o.FilledQuantity.Equal(o.RequestedQuantity) {
		o.Status = Filled
		r.close(id)
	} else {
		o.Status = PartiallyFilled
	}

	if r.sink != nil {
		r.sink.Record(o.Symbol, tape.Trade{
			Price:     price,
			Quantity:  quantity,
			Side:      o.Side,
			Timestamp: now,
		})
	}
	return *o, nil
}

// Cancel transitions an Open or PartiallyFilled order to Cancelled.
// Orders already closed fail with ErrNotCancellable; ids never seen fail
// with ErrUnknownOrder.
func (r *Registry) Cancel(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.open[id]; ok {
		o.Status = Cancelled
		o.UpdatedAt = time.Now()
		r.close(id)
		return *o, nil
	}
	if _, ok := r.closed[id]; ok {
		return Order{}, ErrNotCancellable
	}
	return Order{}, ErrUnknownOrder
}

// Reject transitions an order that has seen no fill to Rejected. Orders
// with fills applied, or already closed, fail with ErrNotCancellable.
func (r *Registry) Reject(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.open[id]
	if !ok {
		if _, closed := r.closed[id]; closed {
			return Order{}, ErrNotCancellable
		}
		return Order{}, ErrUnknownOrder
	}
	if o.FilledQuantity.Sign() > 0 {
		return Order{}, ErrNotCancellable
	}
	o.Status = Rejected
	o.UpdatedAt = time.Now()
	r.close(id)
	return *o, nil
}

// Finalize closes a market order at its current fill level without a
// terminal status transition: market orders never rest, so whatever
// remains unfilled when opposing liquidity runs out is abandoned.
func (r *Registry) Finalize(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.open[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	r.close(id)
	return *o, nil
}

// close moves an order from the open set to the closed set. Caller holds
// r.mu.
func (r *Registry) close(id string) {
	if o, ok := r.open[id]; ok {
		delete(r.open, id)
		r.closed[id] = o
	}
}

// Get returns a copy of the order with the given id, open or closed.
func (r *Registry) Get(id string) (Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.open[id]; ok {
		return *o, true
	}
	if o, ok := r.closed[id]; ok {
		return *o, true
	}
	return Order{}, false
}

// OpenOrders returns copies of all non-closed orders in registration
// order.
func (r *Registry) OpenOrders() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.open))
	for _, id := range r.ids {
		if o, ok := r.open[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}

// History returns copies of every order ever registered, in registration
// order, including closed ones.
func (r *Registry) History() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.ids))
	for _, id := range r.ids {
		if o, ok := r.open[id]; ok {
			out = append(out, *o)
		} else if o, ok := r.closed[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}
