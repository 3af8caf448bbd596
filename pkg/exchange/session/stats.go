package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats are the header numbers of the trading view, derived from the
// trade tape and the current book. Zero-valued fields mean "no data yet".
type Stats struct {
	Symbol        string
	LastPrice     decimal.Decimal
	MidPrice      decimal.Decimal
	High24h       decimal.Decimal
	Low24h        decimal.Decimal
	Volume24h     decimal.Decimal // quote volume: sum of price*quantity
	ChangePct24h  decimal.Decimal // percent change from the oldest in-window print
	TradeCount24h int
}

// Stats computes the 24h rolling view from the prints currently on the
// tape. The tape is bounded, so a very active market's window is
// effectively "the retained prints"; for this simulated feed that is the
// same thing.
func (s *Session) Stats() Stats {
	st := Stats{Symbol: s.mkt.Symbol}

	if mid, ok := s.book.MidPrice(); ok {
		st.MidPrice = mid
	}
	if last, ok := s.book.LastPrice(); ok {
		st.LastPrice = last
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	trades := s.tape.Recent(s.tape.Capacity())
	var oldest decimal.Decimal
	for _, tr := range trades { // newest first
		if tr.Timestamp.Before(cutoff) {
			break
		}
		if st.LastPrice.IsZero() {
			st.LastPrice = tr.Price
		}
		if st.High24h.IsZero() || tr.Price.GreaterThan(st.High24h) {
			st.High24h = tr.Price
		}
		if st.Low24h.IsZero() || tr.Price.LessThan(st.Low24h) {
			st.Low24h = tr.Price
		}
		st.Volume24h = st.Volume24h.Add(tr.Price.Mul(tr.Quantity))
		st.TradeCount24h++
		oldest = tr.Price
	}

	if !oldest.IsZero() && !st.LastPrice.IsZero() {
		hundred := decimal.NewFromInt(100)
		st.ChangePct24h = st.LastPrice.Sub(oldest).Div(oldest).Mul(hundred).Round(2)
	}
	return st
}
