package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmoon-dev/minicex/params"
	"github.com/jmoon-dev/minicex/pkg/api"
	"github.com/jmoon-dev/minicex/pkg/exchange/account"
	"github.com/jmoon-dev/minicex/pkg/exchange/market"
	"github.com/jmoon-dev/minicex/pkg/exchange/order"
	"github.com/jmoon-dev/minicex/pkg/exchange/session"
	"github.com/jmoon-dev/minicex/pkg/feed"
	"github.com/jmoon-dev/minicex/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/exchanged.log"
	}

	logger, err := util.NewLoggerWithFile(logFile, os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Wallet ----
	wallet := account.New()
	for asset, amount := range cfg.Wallet.Deposits {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			sugar.Fatalw("bad_deposit_config", "asset", asset, "amount", amount, "err", err)
		}
		if err := wallet.Deposit(asset, d); err != nil {
			sugar.Fatalw("deposit_failed", "asset", asset, "err", err)
		}
	}
	sugar.Infow("wallet_seeded", "assets", len(cfg.Wallet.Deposits))

	// ---- Markets and sessions ----
	markets := market.Defaults()
	router := session.NewTapeRouter()
	orders := order.NewRegistry(router)

	sessions := make(map[string]*session.Session)
	for _, m := range markets.List() {
		sess := session.New(m, orders, wallet, cfg.Engine.TapeCapacity, sugar)
		router.Attach(m.Symbol, sess.Tape())
		sessions[m.Symbol] = sess
	}
	sugar.Infow("sessions_started", "markets", len(sessions))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiServer := api.NewServer(sessions, markets, orders, wallet, cfg.Engine.SnapshotDepth, sugar)

	// Hook sessions to the API server: push book, trade and order updates
	// to subscribed WebSocket clients as they happen.
	for symbol, sess := range sessions {
		sess.OnBookChange = func(string) {
			apiServer.BroadcastOrderbook(symbol, sess.Depth(cfg.Engine.SnapshotDepth))
		}
		sess.OnTrade = apiServer.BroadcastTrade
		sess.OnOrderUpdate = apiServer.BroadcastOrderUpdate
	}

	go func() {
		if err := apiServer.Start(ctx, cfg.Server.Addr, cfg.Server.AllowedOrigins); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// ---- Market data feed (optional) ----
	if cfg.Feed.Enabled {
		feeder := feed.New(feed.Config{
			Interval:    cfg.Feed.Interval,
			BatchSize:   cfg.Feed.BatchSize,
			DepthLevels: cfg.Feed.DepthLevels,
			Seed:        cfg.Feed.Seed,
		}, sugar)

		sinks := make(map[string]feed.Sink, len(sessions))
		for symbol, sess := range sessions {
			sinks[symbol] = sess
		}
		cancelFeed := feeder.Start(ctx, sinks)
		defer cancelFeed()
		sugar.Infow("feed_enabled", "interval_ms", cfg.Feed.Interval.Milliseconds(), "batch", cfg.Feed.BatchSize)
	} else {
		sugar.Info("feed_disabled - books stay empty until updates arrive")
	}

	// Progress logging loop
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sugar.Info("shutting down")
			return
		case <-ticker.C:
			for symbol, sess := range sessions {
				st := sess.Stats()
				sugar.Infow("market_progress",
					"symbol", symbol,
					"last", st.LastPrice,
					"trades_24h", st.TradeCount24h,
					"open_orders", len(orders.OpenOrders()))
			}
		}
	}
}
