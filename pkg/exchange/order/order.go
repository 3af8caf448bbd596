// Package order models user orders: entry validation, the open-order
// registry, and the fill/cancel lifecycle.
package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmoon-dev/minicex/pkg/exchange/book"
)

// Kind distinguishes market orders, which execute immediately against
// available liquidity and never rest, from limit orders, which execute at
// their price or better and may rest.
type Kind int8

const (
	Market Kind = iota
	Limit
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of an order.
//
// Transitions: Open -> PartiallyFilled -> Filled as fills accumulate;
// Open/PartiallyFilled -> Cancelled on explicit cancel; Open -> Rejected
// before any fill. Filled, Cancelled and Rejected are terminal.
type Status int8

const (
	Open Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == Filled || s == Cancelled || s == Rejected
}

// Order is a validated user order tracked by the registry.
//
// Invariants: 0 <= FilledQuantity <= RequestedQuantity; Status is Filled
// exactly when FilledQuantity equals RequestedQuantity; LimitPrice is
// set exactly when Kind is Limit.
type Order struct {
	ID                string
	Symbol            string
	Side              book.Side
	Kind              Kind
	LimitPrice        decimal.Decimal // zero unless Kind == Limit
	RequestedQuantity decimal.Decimal
	FilledQuantity    decimal.Decimal
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() decimal.Decimal {
	return o.RequestedQuantity.Sub(o.FilledQuantity)
}

// Request is a proposed order as it arrives from the entry form, before
// validation and id assignment.
type Request struct {
	Symbol     string
	Side       book.Side
	Kind       Kind
	LimitPrice decimal.Decimal // required for Limit, ignored for Market
	Quantity   decimal.Decimal
}

// Available carries the balances an order may spend: base asset for
// sells, quote asset for buys.
type Available struct {
	Base  decimal.Decimal
	Quote decimal.Decimal
}
