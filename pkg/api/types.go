package api

import "github.com/shopspring/decimal"

// REST/WebSocket payloads for the trading front-end. Decimals marshal as
// quoted strings, which is what the display layer renders anyway.

// MarketInfo is one row of the markets list.
type MarketInfo struct {
	Symbol       string          `json:"symbol"`
	BaseAsset    string          `json:"baseAsset"`
	QuoteAsset   string          `json:"quoteAsset"`
	Status       string          `json:"status"`
	LastPrice    decimal.Decimal `json:"lastPrice"`
	ChangePct24h decimal.Decimal `json:"changePct24h"`
	High24h      decimal.Decimal `json:"high24h"`
	Low24h       decimal.Decimal `json:"low24h"`
	Volume24h    decimal.Decimal `json:"volume24h"`
}

// PriceLevel is one orderbook row.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderbookSnapshot is the depth view of one market, best-to-worst.
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// TradeInfo is one row of the recent-trades panel, newest first.
type TradeInfo struct {
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Side      string          `json:"side"`
	Time      string          `json:"time"` // HH:MM:SS, what the panel shows
	Timestamp int64           `json:"timestamp"`
}

// StatsInfo is the trading header block.
type StatsInfo struct {
	Symbol        string          `json:"symbol"`
	LastPrice     decimal.Decimal `json:"lastPrice"`
	MidPrice      decimal.Decimal `json:"midPrice"`
	High24h       decimal.Decimal `json:"high24h"`
	Low24h        decimal.Decimal `json:"low24h"`
	Volume24h     decimal.Decimal `json:"volume24h"`
	ChangePct24h  decimal.Decimal `json:"changePct24h"`
	TradeCount24h int             `json:"tradeCount24h"`
}

// OrderInfo is one row of the open-orders / history tables.
type OrderInfo struct {
	ID                string          `json:"id"`
	Symbol            string          `json:"symbol"`
	Side              string          `json:"side"`
	Kind              string          `json:"kind"`
	LimitPrice        decimal.Decimal `json:"limitPrice"`
	RequestedQuantity decimal.Decimal `json:"requestedQuantity"`
	FilledQuantity    decimal.Decimal `json:"filledQuantity"`
	Status            string          `json:"status"`
	CreatedAt         int64           `json:"createdAt"`
}

// BalanceInfo is one wallet row.
type BalanceInfo struct {
	Asset     string          `json:"asset"`
	Available decimal.Decimal `json:"available"`
}

// SubmitOrderRequest is the order entry form payload.
type SubmitOrderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"` // "buy" | "sell"
	Kind     string `json:"kind"` // "market" | "limit"
	Price    string `json:"price,omitempty"`
	Quantity string `json:"quantity"`
}

// SubmitOrderResponse echoes the accepted order.
type SubmitOrderResponse struct {
	OrderID        string          `json:"orderId"`
	Status         string          `json:"status"`
	FilledQuantity decimal.Decimal `json:"filledQuantity"`
}

// CancelOrderRequest targets one working order.
type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is the inbound subscription control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" | "unsubscribe"
	Channels []string `json:"channels"`
}

// OrderbookUpdate is pushed on channel "orderbook:<symbol>".
type OrderbookUpdate struct {
	Type      string       `json:"type"` // "orderbook"
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// TradeUpdate is pushed on channel "trades:<symbol>".
type TradeUpdate struct {
	Type      string          `json:"type"` // "trade"
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Side      string          `json:"side"`
	Timestamp int64           `json:"timestamp"`
}

// OrderStatusUpdate is pushed on channel "orders".
type OrderStatusUpdate struct {
	Type           string          `json:"type"` // "order"
	OrderID        string          `json:"orderId"`
	Status         string          `json:"status"`
	FilledQuantity decimal.Decimal `json:"filledQuantity"`
}
