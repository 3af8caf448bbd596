package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmoon-dev/minicex/pkg/exchange/account"
	"github.com/jmoon-dev/minicex/pkg/exchange/book"
	"github.com/jmoon-dev/minicex/pkg/exchange/market"
	"github.com/jmoon-dev/minicex/pkg/exchange/order"
	"github.com/jmoon-dev/minicex/pkg/exchange/session"
	"github.com/jmoon-dev/minicex/pkg/exchange/tape"
)

// Server exposes the trading surface over REST and WebSocket.
type Server struct {
	sessions map[string]*session.Session
	markets  *market.Registry
	orders   *order.Registry
	wallet   *account.Account

	router *mux.Router
	hub    *Hub
	http   *http.Server
	log    *zap.SugaredLogger

	snapshotDepth int
}

// NewServer wires the handler tree. Call Start to begin serving.
func NewServer(sessions map[string]*session.Session, markets *market.Registry, orders *order.Registry, wallet *account.Account, snapshotDepth int, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		sessions:      sessions,
		markets:       markets,
		orders:        orders,
		wallet:        wallet,
		router:        mux.NewRouter(),
		hub:           NewHub(log),
		log:           log,
		snapshotDepth: snapshotDepth,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/markets", s.handleMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}", s.handleMarket).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleOrderbook).Methods("GET")
	api.HandleFunc("/markets/{symbol}/trades", s.handleTrades).Methods("GET")
	api.HandleFunc("/markets/{symbol}/stats", s.handleStats).Methods("GET")

	api.HandleFunc("/orders", s.handleOpenOrders).Methods("GET")
	api.HandleFunc("/orders/history", s.handleOrderHistory).Methods("GET")
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	api.HandleFunc("/account/balances", s.handleBalances).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.HandleWS)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves until ctx is cancelled, then drains.
func (s *Server) Start(ctx context.Context, addr string, allowedOrigins []string) error {
	go s.hub.Run(ctx)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.http = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api_listening", "addr", addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, string, bool) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	sess, ok := s.sessions[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_market", symbol)
		return nil, symbol, false
	}
	return sess, symbol, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkets(w http.ResponseWriter, _ *http.Request) {
	infos := lo.Map(s.markets.List(), func(m *market.Market, _ int) MarketInfo {
		return s.marketInfo(m)
	})
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])
	m, ok := s.markets.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_market", symbol)
		return
	}
	writeJSON(w, http.StatusOK, s.marketInfo(m))
}

func (s *Server) marketInfo(m *market.Market) MarketInfo {
	info := MarketInfo{
		Symbol:     m.Symbol,
		BaseAsset:  m.BaseAsset,
		QuoteAsset: m.QuoteAsset,
		Status:     m.Status.String(),
	}
	if sess, ok := s.sessions[m.Symbol]; ok {
		st := sess.Stats()
		info.LastPrice = st.LastPrice
		info.ChangePct24h = st.ChangePct24h
		info.High24h = st.High24h
		info.Low24h = st.Low24h
		info.Volume24h = st.Volume24h
	}
	return info
}

func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	sess, symbol, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	depth := s.snapshotDepth
	if v := r.URL.Query().Get("depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_depth", v)
			return
		}
		depth = n
	}
	d := sess.Depth(depth)
	writeJSON(w, http.StatusOK, OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      toLevels(d.Bids),
		Asks:      toLevels(d.Asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit", v)
			return
		}
		limit = n
	}
	trades := lo.Map(sess.RecentTrades(limit), func(tr tape.Trade, _ int) TradeInfo {
		return toTradeInfo(tr)
	})
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Stats()
	writeJSON(w, http.StatusOK, StatsInfo{
		Symbol:        st.Symbol,
		LastPrice:     st.LastPrice,
		MidPrice:      st.MidPrice,
		High24h:       st.High24h,
		Low24h:        st.Low24h,
		Volume24h:     st.Volume24h,
		ChangePct24h:  st.ChangePct24h,
		TradeCount24h: st.TradeCount24h,
	})
}

func (s *Server) handleOpenOrders(w http.ResponseWriter, _ *http.Request) {
	infos := lo.Map(s.orders.OpenOrders(), func(o order.Order, _ int) OrderInfo {
		return toOrderInfo(o)
	})
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, _ *http.Request) {
	infos := lo.Map(s.orders.History(), func(o order.Order, _ int) OrderInfo {
		return toOrderInfo(o)
	})
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	sess, ok := s.sessions[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_market", symbol)
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_side", req.Side)
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_kind", req.Kind)
		return
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_quantity", req.Quantity)
		return
	}
	var price decimal.Decimal
	if kind == order.Limit {
		price, err = decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_price", req.Price)
			return
		}
	}

	o, err := sess.Submit(order.Request{
		Symbol:     symbol,
		Side:       side,
		Kind:       kind,
		LimitPrice: price,
		Quantity:   qty,
	})
	if err != nil {
		writeError(w, rejectStatus(err), "order_rejected", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SubmitOrderResponse{
		OrderID:        o.ID,
		Status:         o.Status.String(),
		FilledQuantity: o.FilledQuantity,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	o, ok := s.orders.Get(req.OrderID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_order", req.OrderID)
		return
	}
	sess, ok := s.sessions[o.Symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_market", o.Symbol)
		return
	}
	if _, err := sess.Cancel(req.OrderID); err != nil {
		status := http.StatusConflict
		if errors.Is(err, order.ErrUnknownOrder) {
			status = http.StatusNotFound
		}
		writeError(w, status, "cancel_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": req.OrderID, "status": order.Cancelled.String()})
}

func (s *Server) handleBalances(w http.ResponseWriter, _ *http.Request) {
	balances := s.wallet.Balances()
	infos := make([]BalanceInfo, 0, len(balances))
	for asset, amount := range balances {
		infos = append(infos, BalanceInfo{Asset: asset, Available: amount})
	}
	writeJSON(w, http.StatusOK, infos)
}

// BroadcastOrderbook pushes a fresh depth snapshot to "orderbook:<symbol>".
func (s *Server) BroadcastOrderbook(symbol string, d book.Depth) {
	s.hub.Broadcast("orderbook:"+symbol, OrderbookUpdate{
		Type:      "orderbook",
		Symbol:    symbol,
		Bids:      toLevels(d.Bids),
		Asks:      toLevels(d.Asks),
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastTrade pushes one print to "trades:<symbol>".
func (s *Server) BroadcastTrade(symbol string, tr tape.Trade) {
	s.hub.Broadcast("trades:"+symbol, TradeUpdate{
		Type:      "trade",
		Symbol:    symbol,
		Price:     tr.Price,
		Quantity:  tr.Quantity,
		Side:      tr.Side.String(),
		Timestamp: tr.Timestamp.UnixMilli(),
	})
}

// BroadcastOrderUpdate pushes an order lifecycle transition to "orders".
func (s *Server) BroadcastOrderUpdate(u session.OrderUpdate) {
	s.hub.Broadcast("orders", OrderStatusUpdate{
		Type:           "order",
		OrderID:        u.OrderID,
		Status:         u.Status.String(),
		FilledQuantity: u.FilledQuantity,
	})
}

func toLevels(levels []book.PriceLevel) []PriceLevel {
	return lo.Map(levels, func(l book.PriceLevel, _ int) PriceLevel {
		return PriceLevel{Price: l.Price, Quantity: l.Quantity}
	})
}

func toTradeInfo(tr tape.Trade) TradeInfo {
	return TradeInfo{
		Price:     tr.Price,
		Quantity:  tr.Quantity,
		Side:      tr.Side.String(),
		Time:      tr.Timestamp.Format("15:04:05"),
		Timestamp: tr.Timestamp.UnixMilli(),
	}
}

func toOrderInfo(o order.Order) OrderInfo {
	return OrderInfo{
		ID:                o.ID,
		Symbol:            o.Symbol,
		Side:              o.Side.String(),
		Kind:              o.Kind.String(),
		LimitPrice:        o.LimitPrice,
		RequestedQuantity: o.RequestedQuantity,
		FilledQuantity:    o.FilledQuantity,
		Status:            o.Status.String(),
		CreatedAt:         o.CreatedAt.UnixMilli(),
	}
}

func parseSide(s string) (book.Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return book.Buy, nil
	case "sell":
		return book.Sell, nil
	}
	return 0, errors.New("unknown side")
}

func parseKind(s string) (order.Kind, error) {
	switch strings.ToLower(s) {
	case "market":
		return order.Market, nil
	case "limit":
		return order.Limit, nil
	}
	return 0, errors.New("unknown order kind")
}

func rejectStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrHalted):
		return http.StatusServiceUnavailable
	case errors.Is(err, order.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
