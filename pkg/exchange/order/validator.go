package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmoon-dev/minicex/pkg/exchange/book"
)

// Validate checks a proposed order against the current book state and the
// caller's available balances, returning a normalized Open order with no
// fills on success. It is pure: neither the book nor any registry is
// mutated, so it may run concurrently with book reads. Callers that
// register the result must do so under the same lock as the validation
// read to avoid stale-price and stale-balance races.
func Validate(req Request, b *book.OrderBook, avail Available) (*Order, error) {
	if req.Quantity.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Kind == Limit && req.LimitPrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}

	// Reference price: the limit price for limit orders, the opposing
	// best for market orders. A market order with nothing to execute
	// against is rejected outright.
	ref := req.LimitPrice
	if req.Kind == Market {
		top, ok := opposingBest(req.Side, b)
		if !ok {
			return nil, ErrEmptyBook
		}
		ref = top.Price
	}

	if req.Side == book.Buy {
		if req.Quantity.Mul(ref).GreaterThan(avail.Quote) {
			return nil, ErrInsufficientBalance
		}
	} else {
		if req.Quantity.GreaterThan(avail.Base) {
			return nil, ErrInsufficientBalance
		}
	}

	limitPrice := decimal.Decimal{}
	if req.Kind == Limit {
		limitPrice = req.LimitPrice
	}
	now := time.Now()
	return &Order{
		Symbol:            req.Symbol,
		Side:              req.Side,
		Kind:              req.Kind,
		LimitPrice:        limitPrice,
		RequestedQuantity: req.Quantity,
		Status:            Open,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func opposingBest(side book.Side, b *book.OrderBook) (book.PriceLevel, bool) {
	if side == book.Buy {
		return b.BestAsk()
	}
	return b.BestBid()
}
