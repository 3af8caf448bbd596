// Package feed generates simulated market data: a seeded book per market
// followed by a random walk of level updates and trade prints. It stands
// in for the live exchange feed the display pages would otherwise
// subscribe to.
package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jmoon-dev/minicex/pkg/exchange/book"
)

// Sink is the slice of a trading session the feeder drives.
type Sink interface {
	ApplyLevelUpdate(side book.Side, price, quantity decimal.Decimal) error
	RecordTrade(price, quantity decimal.Decimal, side book.Side)
}

// Config controls update cadence and book shape.
type Config struct {
	Interval    time.Duration // time between update batches
	BatchSize   int           // level updates per batch
	DepthLevels int           // seeded levels per side
	Seed        int64         // rng seed; 0 means time-based
}

// Default returns a modest cadence suitable for a demo UI.
func Default() Config {
	return Config{
		Interval:    500 * time.Millisecond,
		BatchSize:   4,
		DepthLevels: 12,
	}
}

// basePrices anchors the random walk per symbol.
var basePrices = map[string]decimal.Decimal{
	"BTC-USDT": decimal.RequireFromString("65432.10"),
	"ETH-USDT": decimal.RequireFromString("3215.67"),
	"SOL-USDT": decimal.RequireFromString("142.89"),
	"ADA-USDT": decimal.RequireFromString("0.89"),
}

// Feeder owns the rng and per-symbol anchors for one feed run.
type Feeder struct {
	cfg     Config
	rng     *rand.Rand
	anchors map[string]decimal.Decimal
	log     *zap.SugaredLogger
}

func New(cfg Config, log *zap.SugaredLogger) *Feeder {
	if cfg.Interval <= 0 {
		cfg.Interval = Default().Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = Default().BatchSize
	}
	if cfg.DepthLevels <= 0 {
		cfg.DepthLevels = Default().DepthLevels
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Feeder{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		anchors: make(map[string]decimal.Decimal),
		log:     log,
	}
}

// Start seeds every sink's book and launches the update loop. The
// returned cancel stops the feeder.
func (f *Feeder) Start(ctx context.Context, sinks map[string]Sink) context.CancelFunc {
	feedCtx, cancel := context.WithCancel(ctx)

	for symbol, sink := range sinks {
		f.seedBook(symbol, sink)
	}

	go func() {
		ticker := time.NewTicker(f.cfg.Interval)
		defer ticker.Stop()

		total := 0
		start := time.Now()
		f.log.Infow("feed_started",
			"markets", len(sinks), "interval", f.cfg.Interval, "batch", f.cfg.BatchSize)

		for {
			select {
			case <-feedCtx.Done():
				f.log.Infow("feed_stopped",
					"updates", total, "elapsed", time.Since(start).Round(time.Second))
				return
			case <-ticker.C:
				for symbol, sink := range sinks {
					total += f.tick(symbol, sink)
				}
			}
		}
	}()

	return cancel
}

// seedBook lays DepthLevels levels per side around the symbol's anchor
// price, mirroring the depth the trading page shows on load.
func (f *Feeder) seedBook(symbol string, sink Sink) {
	base, ok := basePrices[symbol]
	if !ok {
		base = decimal.RequireFromString("100.00")
	}
	f.anchors[symbol] = base

	step := base.Mul(decimal.RequireFromString("0.0001"))
	for i := 1; i <= f.cfg.DepthLevels; i++ {
		offset := step.Mul(decimal.NewFromInt(int64(i)))
		if err := sink.ApplyLevelUpdate(book.Buy, base.Sub(offset), f.randQty()); err != nil {
			f.log.Warnw("seed_failed", "symbol", symbol, "err", err)
		}
		if err := sink.ApplyLevelUpdate(book.Sell, base.Add(offset), f.randQty()); err != nil {
			f.log.Warnw("seed_failed", "symbol", symbol, "err", err)
		}
	}
}

// tick emits one batch for a symbol: mostly passive level churn, with an
// occasional aggressive update that crosses the book and an occasional
// plain trade print.
func (f *Feeder) tick(symbol string, sink Sink) int {
	base := f.anchors[symbol]
	step := base.Mul(decimal.RequireFromString("0.0001"))

	n := 0
	for i := 0; i < f.cfg.BatchSize; i++ {
		side := book.Buy
		if f.rng.Intn(2) == 0 {
			side = book.Sell
		}

		switch f.rng.Intn(10) {
		case 0: // aggressive update, crosses ~1 level deep
			price := f.offsetPrice(base, step, side, -1)
			if err := sink.ApplyLevelUpdate(side, price, f.randQty()); err != nil {
				f.log.Warnw("update_failed", "symbol", symbol, "err", err)
			}
		case 1: // straight trade print near the anchor
			sink.RecordTrade(f.offsetPrice(base, step, side, 0), f.randQty(), side)
		case 2: // pull a level
			price := f.offsetPrice(base, step, side, 1+f.rng.Intn(f.cfg.DepthLevels))
			if err := sink.ApplyLevelUpdate(side, price, decimal.Decimal{}); err != nil {
				f.log.Warnw("update_failed", "symbol", symbol, "err", err)
			}
		default: // requote a level
			price := f.offsetPrice(base, step, side, 1+f.rng.Intn(f.cfg.DepthLevels))
			if err := sink.ApplyLevelUpdate(side, price, f.randQty()); err != nil {
				f.log.Warnw("update_failed", "symbol", symbol, "err", err)
			}
		}
		n++
	}

	// Slow anchor drift so the walk does not stand still.
	drift := step.Mul(decimal.NewFromInt(int64(f.rng.Intn(3) - 1)))
	f.anchors[symbol] = base.Add(drift)
	return n
}

// offsetPrice places a price depth steps away from the anchor on the
// quoted side; negative depth reaches across the spread.
func (f *Feeder) offsetPrice(base, step decimal.Decimal, side book.Side, depth int) decimal.Decimal {
	offset := step.Mul(decimal.NewFromInt(int64(depth)))
	if side == book.Buy {
		return base.Sub(offset)
	}
	return base.Add(offset)
}

func (f *Feeder) randQty() decimal.Decimal {
	// 0.01 .. 2.00 in hundredths
	return decimal.New(int64(1+f.rng.Intn(200)), -2)
}
