// Package session runs the trading session for one market: it owns the
// order book and trade tape, serializes every mutation behind a single
// lock, and drives order submission, matching, and balance settlement.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmoon-dev/minicex/pkg/exchange/account"
	"github.com/jmoon-dev/minicex/pkg/exchange/book"
	"github.com/jmoon-dev/minicex/pkg/exchange/market"
	"github.com/jmoon-dev/minicex/pkg/exchange/order"
	"github.com/jmoon-dev/minicex/pkg/exchange/tape"
)

// ErrHalted is returned by Submit after the registry reported corrupted
// state (duplicate id or overfill). The session refuses further order
// flow until reinitialized.
var ErrHalted = errors.New("session halted: registry state corrupted")

// OrderUpdate is the outbound status-change notification for the open
// orders panel.
type OrderUpdate struct {
	OrderID        string
	Status         order.Status
	FilledQuantity decimal.Decimal
}

// Session is the single logical writer for one market's book and tape.
// Level updates, trade prints, and matching are serialized under one
// mutex; reads return detached copies and may run concurrently.
type Session struct {
	mu  sync.Mutex
	mkt *market.Market

	book   *book.OrderBook
	tape   *tape.Tape
	orders *order.Registry  // referenced, owned by the user session
	wallet *account.Account // referenced, owned by the user session

	log    *zap.SugaredLogger
	halted bool

	// Outbound hooks for the display layer. Set before the session
	// receives traffic; invoked while the session lock is held.
	OnOrderUpdate func(OrderUpdate)
	OnTrade       func(symbol string, tr tape.Trade)
	OnBookChange  func(symbol string)
}

// New creates a session owning a fresh book and a tape of tapeCapacity.
func New(mkt *market.Market, orders *order.Registry, wallet *account.Account, tapeCapacity int, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Session{
		mkt:    mkt,
		book:   book.New(),
		tape:   tape.New(tapeCapacity),
		orders: orders,
		wallet: wallet,
		log:    log,
	}
}

// Market returns the market this session trades.
func (s *Session) Market() *market.Market { return s.mkt }

// Tape exposes the session's trade tape. Registry fill prints for this
// market are routed here by the caller's TradeSink.
func (s *Session) Tape() *tape.Tape { return s.tape }

// Submit validates, registers, and immediately executes an order request.
// Validation and registration happen under the session lock, so the
// balances and prices checked are exactly the ones the order executes
// against. The returned order reflects all immediate fills.
func (s *Session) Submit(req order.Request) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return order.Order{}, ErrHalted
	}

	avail := order.Available{
		Base:  s.wallet.Balance(s.mkt.BaseAsset),
		Quote: s.wallet.Balance(s.mkt.QuoteAsset),
	}
	o, err := order.Validate(req, s.book, avail)
	if err != nil {
		s.log.Debugw("order_rejected",
			"symbol", req.Symbol, "side", req.Side.String(),
			"kind", req.Kind.String(), "err", err)
		return order.Order{}, err
	}

	id, err := s.orders.Register(o)
	if err != nil {
		s.halt("register", err)
		return order.Order{}, err
	}

	var limit *decimal.Decimal
	if o.Kind == order.Limit {
		p := o.LimitPrice
		limit = &p
	}
	fills := s.book.Match(o.Side, o.RequestedQuantity, limit)
	for _, f := range fills {
		if err := s.applyFill(id, f); err != nil {
			return order.Order{}, err
		}
	}

	cur, _ := s.orders.Get(id)
	if o.Kind == order.Market && !cur.Status.Terminal() {
		// Market orders never rest: finalize at the current fill level.
		cur, err = s.orders.Finalize(id)
		if err != nil {
			return order.Order{}, fmt.Errorf("finalize %s: %w", id, err)
		}
	}

	s.notifyOrder(cur)
	if len(fills) > 0 && s.OnBookChange != nil {
		s.OnBookChange(s.mkt.Symbol)
	}
	s.log.Infow("order_submitted",
		"id", id, "symbol", cur.Symbol, "side", cur.Side.String(),
		"kind", cur.Kind.String(), "status", cur.Status.String(),
		"requested", cur.RequestedQuantity, "filled", cur.FilledQuantity)
	return cur, nil
}

// Cancel transitions an order to Cancelled if it is still working.
func (s *Session) Cancel(id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.orders.Cancel(id)
	if err != nil {
		return order.Order{}, err
	}
	s.notifyOrder(o)
	s.log.Infow("order_cancelled", "id", id, "filled", o.FilledQuantity)
	return o, nil
}

// ApplyLevelUpdate ingests one feed level update. Implied fills produced
// by a crossing update are recorded as trade prints, then resting limit
// orders are re-checked against the moved book.
func (s *Session) ApplyLevelUpdate(side book.Side, price, quantity decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fills, err := s.book.ApplyLevelUpdate(side, price, quantity)
	if err != nil {
		return fmt.Errorf("level update %s %s@%s: %w", side, quantity, price, err)
	}
	for _, f := range fills {
		s.recordPrint(tape.Trade{
			Price:     f.Price,
			Quantity:  f.Quantity,
			Side:      f.Taker,
			Timestamp: time.Now(),
		})
	}
	s.matchResting()
	if s.OnBookChange != nil {
		s.OnBookChange(s.mkt.Symbol)
	}
	return nil
}

// RecordTrade ingests one external trade print from the feed.
func (s *Session) RecordTrade(price, quantity decimal.Decimal, side book.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordPrint(tape.Trade{
		Price:     price,
		Quantity:  quantity,
		Side:      side,
		Timestamp: time.Now(),
	})
}

// matchResting fills resting limit orders the book now crosses: best
// price first, each level consumed fully before the next. Caller holds
// s.mu.
func (s *Session) matchResting() {
	for _, o := range s.orders.OpenOrders() {
		if o.Symbol != s.mkt.Symbol || o.Kind != order.Limit {
			continue
		}
		if !s.crossed(o) {
			continue
		}
		limit := o.LimitPrice
		fills := s.book.Match(o.Side, o.Remaining(), &limit)
		for _, f := range fills {
			if err := s.applyFill(o.ID, f); err != nil {
				return
			}
		}
		if len(fills) > 0 {
			if cur, ok := s.orders.Get(o.ID); ok {
				s.notifyOrder(cur)
			}
		}
	}
}

func (s *Session) crossed(o order.Order) bool {
	if o.Side == book.Buy {
		ask, ok := s.book.BestAsk()
		return ok && ask.Price.LessThanOrEqual(o.LimitPrice)
	}
	bid, ok := s.book.BestBid()
	return ok && bid.Price.GreaterThanOrEqual(o.LimitPrice)
}

// applyFill books one fill on the registry and settles the wallet legs.
// Caller holds s.mu.
func (s *Session) applyFill(id string, f book.Fill) error {
	o, err := s.orders.ApplyFill(id, f.Quantity, f.Price)
	if err != nil {
		if errors.Is(err, order.ErrOverfillAttempt) || errors.Is(err, order.ErrDuplicateOrder) {
			s.halt("apply_fill", err)
		}
		return err
	}
	s.settle(o.Side, f.Price, f.Quantity)
	if s.OnTrade != nil {
		s.OnTrade(s.mkt.Symbol, tape.Trade{
			Price:     f.Price,
			Quantity:  f.Quantity,
			Side:      f.Taker,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// settle moves wallet balances for one fill: buys spend quote for base,
// sells spend base for quote. Matching is best-effort; a short leg is
// logged, not retried.
func (s *Session) settle(side book.Side, price, quantity decimal.Decimal) {
	cost := price.Mul(quantity)
	var err error
	if side == book.Buy {
		if err = s.wallet.Withdraw(s.mkt.QuoteAsset, cost); err == nil {
			err = s.wallet.Deposit(s.mkt.BaseAsset, quantity)
		}
	} else {
		if err = s.wallet.Withdraw(s.mkt.BaseAsset, quantity); err == nil {
			err = s.wallet.Deposit(s.mkt.QuoteAsset, cost)
		}
	}
	if err != nil {
		s.log.Warnw("settlement_short",
			"symbol", s.mkt.Symbol, "side", side.String(),
			"price", price, "quantity", quantity, "err", err)
	}
}

// recordPrint appends a print to the tape and notifies. Caller holds s.mu.
func (s *Session) recordPrint(tr tape.Trade) {
	s.tape.Record(tr)
	if s.OnTrade != nil {
		s.OnTrade(s.mkt.Symbol, tr)
	}
}

func (s *Session) notifyOrder(o order.Order) {
	if s.OnOrderUpdate != nil {
		s.OnOrderUpdate(OrderUpdate{
			OrderID:        o.ID,
			Status:         o.Status,
			FilledQuantity: o.FilledQuantity,
		})
	}
}

// halt marks the session unusable after an invariant breach.
func (s *Session) halt(op string, err error) {
	s.halted = true
	s.log.Errorw("registry_corrupted", "op", op, "symbol", s.mkt.Symbol, "err", err)
}

// ---- read side ----

// Depth returns a point-in-time copy of the top depth levels per side.
func (s *Session) Depth(depth int) book.Depth {
	return s.book.Snapshot(depth)
}

// Top returns the current best bid and ask as one consistent view.
func (s *Session) Top() (bid, ask book.PriceLevel, ok bool) {
	return s.book.Top()
}

// Spread returns bestAsk - bestBid; false when either side is empty.
func (s *Session) Spread() (decimal.Decimal, bool) {
	return s.book.Spread()
}

// RecentTrades returns up to n trade prints, newest first.
func (s *Session) RecentTrades(n int) []tape.Trade {
	return s.tape.Recent(n)
}
