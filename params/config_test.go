package params

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Engine.TapeCapacity != 256 || cfg.Engine.SnapshotDepth != 10 {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Interval != 500*time.Millisecond {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.Wallet.Deposits["USDT"] != "5250.00" || cfg.Wallet.Deposits["BTC"] != "2.3456" {
		t.Errorf("deposits = %+v", cfg.Wallet.Deposits)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("TAPE_CAPACITY", "512")
	t.Setenv("FEED_ENABLED", "false")
	t.Setenv("FEED_INTERVAL_MS", "250")
	t.Setenv("WALLET_DEPOSITS", "USDT:1000.00,ETH:5.5")

	cfg := LoadFromEnv("")
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Engine.TapeCapacity != 512 {
		t.Errorf("tape capacity = %d", cfg.Engine.TapeCapacity)
	}
	if cfg.Feed.Enabled {
		t.Error("feed still enabled")
	}
	if cfg.Feed.Interval != 250*time.Millisecond {
		t.Errorf("interval = %v", cfg.Feed.Interval)
	}
	if len(cfg.Wallet.Deposits) != 2 || cfg.Wallet.Deposits["ETH"] != "5.5" {
		t.Errorf("deposits = %+v", cfg.Wallet.Deposits)
	}
}

func TestBadEnvValuesKeepDefaults(t *testing.T) {
	t.Setenv("TAPE_CAPACITY", "not-a-number")
	t.Setenv("FEED_BATCH_SIZE", "-3")

	cfg := LoadFromEnv("")
	if cfg.Engine.TapeCapacity != 256 {
		t.Errorf("tape capacity = %d, want default 256", cfg.Engine.TapeCapacity)
	}
	if cfg.Feed.BatchSize != 4 {
		t.Errorf("batch size = %d, want default 4", cfg.Feed.BatchSize)
	}
}
