package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoon-dev/minicex/pkg/exchange/account"
	"github.com/jmoon-dev/minicex/pkg/exchange/book"
	"github.com/jmoon-dev/minicex/pkg/exchange/market"
	"github.com/jmoon-dev/minicex/pkg/exchange/order"
	"github.com/jmoon-dev/minicex/pkg/exchange/session"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	markets := market.Defaults()
	wallet := account.New()
	require.NoError(t, wallet.Deposit("USDT", d("100000")))
	require.NoError(t, wallet.Deposit("BTC", d("10")))

	router := session.NewTapeRouter()
	orders := order.NewRegistry(router)

	sessions := make(map[string]*session.Session)
	for _, m := range markets.List() {
		sess := session.New(m, orders, wallet, 64, nil)
		router.Attach(m.Symbol, sess.Tape())
		sessions[m.Symbol] = sess
	}

	// Seed BTC-USDT so market orders have something to hit.
	btc := sessions["BTC-USDT"]
	require.NoError(t, btc.ApplyLevelUpdate(book.Buy, d("99.00"), d("5.0")))
	require.NoError(t, btc.ApplyLevelUpdate(book.Sell, d("101.00"), d("5.0")))

	return NewServer(sessions, markets, orders, wallet, 10, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListMarkets(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/api/v1/markets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	infos := decode[[]MarketInfo](t, rec)
	require.Len(t, infos, 4)
	assert.Equal(t, "BTC-USDT", infos[0].Symbol)
	assert.Equal(t, "active", infos[0].Status)
}

func TestGetMarket(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/v1/markets/eth-usdt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[MarketInfo](t, rec)
	assert.Equal(t, "ETH-USDT", info.Symbol)
	assert.Equal(t, "ETH", info.BaseAsset)

	rec = doJSON(t, s, "GET", "/api/v1/markets/DOGE-USDT", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderbookEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/v1/markets/BTC-USDT/orderbook?depth=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[OrderbookSnapshot](t, rec)
	assert.Equal(t, "BTC-USDT", snap.Symbol)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	assert.True(t, snap.Bids[0].Price.Equal(d("99.00")))
	assert.True(t, snap.Asks[0].Price.Equal(d("101.00")))

	rec = doJSON(t, s, "GET", "/api/v1/markets/BTC-USDT/orderbook?depth=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAndCancelOrder(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/v1/orders", SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: "buy", Kind: "limit", Price: "98.00", Quantity: "2.0",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SubmitOrderResponse](t, rec)
	require.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "open", resp.Status)

	rec = doJSON(t, s, "GET", "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	open := decode[[]OrderInfo](t, rec)
	require.Len(t, open, 1)
	assert.Equal(t, resp.OrderID, open[0].ID)

	rec = doJSON(t, s, "POST", "/api/v1/orders/cancel", CancelOrderRequest{OrderID: resp.OrderID})
	require.Equal(t, http.StatusOK, rec.Code)

	// Already terminal: conflict.
	rec = doJSON(t, s, "POST", "/api/v1/orders/cancel", CancelOrderRequest{OrderID: resp.OrderID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, "GET", "/api/v1/orders/history", nil)
	history := decode[[]OrderInfo](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "cancelled", history[0].Status)
}

func TestSubmitMarketOrderExecutes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/v1/orders", SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: "buy", Kind: "market", Quantity: "1.0",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SubmitOrderResponse](t, rec)
	assert.Equal(t, "filled", resp.Status)
	assert.True(t, resp.FilledQuantity.Equal(d("1.0")))

	rec = doJSON(t, s, "GET", "/api/v1/markets/BTC-USDT/trades?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trades := decode[[]TradeInfo](t, rec)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("101.00")))
}

func TestSubmitOrderRejections(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		req  SubmitOrderRequest
		want int
	}{
		{
			name: "unknown market",
			req:  SubmitOrderRequest{Symbol: "DOGE-USDT", Side: "buy", Kind: "limit", Price: "1", Quantity: "1"},
			want: http.StatusNotFound,
		},
		{
			name: "bad side",
			req:  SubmitOrderRequest{Symbol: "BTC-USDT", Side: "hold", Kind: "limit", Price: "1", Quantity: "1"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad kind",
			req:  SubmitOrderRequest{Symbol: "BTC-USDT", Side: "buy", Kind: "stop", Price: "1", Quantity: "1"},
			want: http.StatusBadRequest,
		},
		{
			name: "bad quantity",
			req:  SubmitOrderRequest{Symbol: "BTC-USDT", Side: "buy", Kind: "limit", Price: "1", Quantity: "lots"},
			want: http.StatusBadRequest,
		},
		{
			name: "limit without price",
			req:  SubmitOrderRequest{Symbol: "BTC-USDT", Side: "buy", Kind: "limit", Quantity: "1"},
			want: http.StatusBadRequest,
		},
		{
			name: "insufficient balance",
			req:  SubmitOrderRequest{Symbol: "BTC-USDT", Side: "buy", Kind: "limit", Price: "99999", Quantity: "1000"},
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, "POST", "/api/v1/orders", tc.req)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "POST", "/api/v1/orders/cancel", CancelOrderRequest{OrderID: "no-such-id"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBalancesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/api/v1/account/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	infos := decode[[]BalanceInfo](t, rec)
	require.Len(t, infos, 2)
	byAsset := map[string]decimal.Decimal{}
	for _, b := range infos {
		byAsset[b.Asset] = b.Available
	}
	assert.True(t, byAsset["USDT"].Equal(d("100000")))
	assert.True(t, byAsset["BTC"].Equal(d("10")))
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/v1/orders", SubmitOrderRequest{
		Symbol: "BTC-USDT", Side: "buy", Kind: "market", Quantity: "1.0",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, "GET", "/api/v1/markets/BTC-USDT/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[StatsInfo](t, rec)
	assert.Equal(t, "BTC-USDT", st.Symbol)
	assert.Equal(t, 1, st.TradeCount24h)
	assert.True(t, st.LastPrice.Equal(d("101.00")))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
