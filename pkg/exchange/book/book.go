// Package book implements the live order book for one market: sorted
// bid/ask price levels, top-of-book queries, depth snapshots, and
// price-priority matching against the resting levels.
package book

import (
	"errors"
	"sync"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"
)

// ErrInvalidLevel is returned when a level update carries a non-positive
// price or a negative quantity.
var ErrInvalidLevel = errors.New("invalid price level")

// PriceLevel is the aggregated quantity available at one price.
// Quantity is strictly positive while the level is in the book; a level
// driven to zero is removed, never stored.
type PriceLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Fill records liquidity taken from a resting level, either by an order
// matched through Match or implied by a crossing level update.
type Fill struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Taker    Side // aggressor side: Buy consumed an ask, Sell consumed a bid
}

// Depth is a copied top-N view of both sides, best-to-worst.
type Depth struct {
	Bids []PriceLevel
	Asks []PriceLevel
}

// OrderBook keeps one level per price on each side, bids descending and
// asks ascending. All mutation goes through ApplyLevelUpdate and Match,
// which preserve sort order and the no-self-cross invariant: a crossing
// update is resolved into fills before any remainder is quoted, so
// best bid >= best ask is never observable.
type OrderBook struct {
	mu sync.RWMutex

	bids *rbt.Tree // decimal price -> decimal quantity, best (highest) first
	asks *rbt.Tree // decimal price -> decimal quantity, best (lowest) first

	lastPrice decimal.Decimal // most recent fill price, zero before any fill
}

func New() *OrderBook {
	return &OrderBook{
		bids: rbt.NewWith(bidComparator),
		asks: rbt.NewWith(askComparator),
	}
}

// ApplyLevelUpdate upserts the level at price to exactly quantity, or
// removes it when quantity is zero. An update that would cross the book
// (a bid at or above the best ask, or an ask at or below the best bid)
// first consumes opposing levels as implied fills, best price first; only
// the uncrossed remainder is stored. The returned fills are the implied
// trade prints, in execution order.
func (ob *OrderBook) ApplyLevelUpdate(side Side, price, quantity decimal.Decimal) ([]Fill, error) {
	if price.Sign() <= 0 || quantity.Sign() < 0 {
		return nil, ErrInvalidLevel
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	own := ob.treeFor(side)
	if quantity.IsZero() {
		own.Remove(price)
		return nil, nil
	}

	// Trade-then-quote: resolve any cross before quoting the remainder.
	fills, remaining := ob.sweep(side, quantity, &price)
	if remaining.Sign() > 0 {
		own.Put(price, remaining)
	} else {
		own.Remove(price)
	}
	return fills, nil
}

// Match consumes opposing liquidity for a taker order: best price first,
// each level fully before the next, until quantity is exhausted, the
// opposing side empties, or the next level no longer satisfies limit.
// A nil limit matches at any price (market order semantics).
func (ob *OrderBook) Match(taker Side, quantity decimal.Decimal, limit *decimal.Decimal) []Fill {
	if quantity.Sign() <= 0 {
		return nil
	}
	ob.mu.Lock()
	defer ob.mu.Unlock()
	fills, _ := ob.sweep(taker, quantity, limit)
	return fills
}

// sweep is the shared matching loop. Caller holds ob.mu.
func (ob *OrderBook) sweep(taker Side, quantity decimal.Decimal, limit *decimal.Decimal) ([]Fill, decimal.Decimal) {
	opp := ob.treeFor(taker.Opposite())

	var fills []Fill
	for quantity.Sign() > 0 {
		node := opp.Left() // best price under the side's comparator
		if node == nil {
			break
		}
		price := node.Key.(decimal.Decimal)
		if limit != nil && !crosses(taker, price, *limit) {
			break
		}

		avail := node.Value.(decimal.Decimal)
		match := decimal.Min(quantity, avail)
		quantity = quantity.Sub(match)

		if avail.Sub(match).IsZero() {
			opp.Remove(price)
		} else {
			opp.Put(price, avail.Sub(match))
		}

		fills = append(fills, Fill{Price: price, Quantity: match, Taker: taker})
		ob.lastPrice = price
	}
	return fills, quantity
}

// crosses reports whether a taker at limit would trade against a resting
// level at price.
func crosses(taker Side, price, limit decimal.Decimal) bool {
	if taker == Buy {
		return price.LessThanOrEqual(limit)
	}
	return price.GreaterThanOrEqual(limit)
}

// BestBid returns the highest bid level, or false when the side is empty.
func (ob *OrderBook) BestBid() (PriceLevel, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return best(ob.bids)
}

// BestAsk returns the lowest ask level, or false when the side is empty.
func (ob *OrderBook) BestAsk() (PriceLevel, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return best(ob.asks)
}

// Top returns both sides of the touch read under a single lock, so the
// pair is a consistent point-in-time view; false when either side is
// empty.
func (ob *OrderBook) Top() (bid, ask PriceLevel, ok bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	b, okB := best(ob.bids)
	a, okA := best(ob.asks)
	return b, a, okB && okA
}

func best(tree *rbt.Tree) (PriceLevel, bool) {
	node := tree.Left()
	if node == nil {
		return PriceLevel{}, false
	}
	return PriceLevel{
		Price:    node.Key.(decimal.Decimal),
		Quantity: node.Value.(decimal.Decimal),
	}, true
}

// Spread returns bestAsk - bestBid; false when either side is empty.
func (ob *OrderBook) Spread() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	bid, okB := best(ob.bids)
	ask, okA := best(ob.asks)
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}

// MidPrice returns the average of best bid and best ask; false when
// either side is empty.
func (ob *OrderBook) MidPrice() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	bid, okB := best(ob.bids)
	ask, okA := best(ob.asks)
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return bid.Price.Add(ask.Price).DivRound(decimal.NewFromInt(2), 8), true
}

// LastPrice returns the price of the most recent fill, or false before
// any fill has occurred.
func (ob *OrderBook) LastPrice() (decimal.Decimal, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if ob.lastPrice.IsZero() {
		return decimal.Decimal{}, false
	}
	return ob.lastPrice, true
}

// Snapshot copies the top depth levels per side, best-to-worst. The result
// is detached from the book: a pure, restartable read.
func (ob *OrderBook) Snapshot(depth int) Depth {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return Depth{
		Bids: topLevels(ob.bids, depth),
		Asks: topLevels(ob.asks, depth),
	}
}

func topLevels(tree *rbt.Tree, depth int) []PriceLevel {
	levels := make([]PriceLevel, 0, depth)
	it := tree.Iterator()
	for i := 0; i < depth && it.Next(); i++ {
		levels = append(levels, PriceLevel{
			Price:    it.Key().(decimal.Decimal),
			Quantity: it.Value().(decimal.Decimal),
		})
	}
	return levels
}

// Len returns the number of levels on one side.
func (ob *OrderBook) Len(side Side) int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.treeFor(side).Size()
}

func (ob *OrderBook) treeFor(side Side) *rbt.Tree {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

// askComparator orders ask prices ascending so the tree minimum is the
// best (lowest) ask.
func askComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

// bidComparator orders bid prices descending so the tree minimum is the
// best (highest) bid.
func bidComparator(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}
