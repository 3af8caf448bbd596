package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Server struct {
	Addr           string
	AllowedOrigins []string
}

type Engine struct {
	TapeCapacity  int
	SnapshotDepth int // default depth for orderbook responses
}

type Feed struct {
	Enabled     bool
	Interval    time.Duration
	BatchSize   int
	DepthLevels int
	Seed        int64
}

type Wallet struct {
	// Deposits seeds the demo wallet, asset -> decimal string.
	Deposits map[string]string
}

type Config struct {
	Server Server
	Engine Engine
	Feed   Feed
	Wallet Wallet
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Engine: Engine{
			TapeCapacity:  256,
			SnapshotDepth: 10,
		},
		Feed: Feed{
			Enabled:     true,
			Interval:    500 * time.Millisecond,
			BatchSize:   4,
			DepthLevels: 12,
		},
		Wallet: Wallet{
			Deposits: map[string]string{
				"USDT": "5250.00",
				"BTC":  "2.3456",
			},
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // .env in current directory, optional
	}

	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	if v := os.Getenv("TAPE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.TapeCapacity = n
		}
	}
	if v := os.Getenv("SNAPSHOT_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.SnapshotDepth = n
		}
	}

	if v := os.Getenv("FEED_ENABLED"); v != "" {
		cfg.Feed.Enabled = v == "true"
	}
	if v := os.Getenv("FEED_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Feed.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("FEED_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Feed.BatchSize = n
		}
	}
	if v := os.Getenv("FEED_DEPTH_LEVELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Feed.DepthLevels = n
		}
	}
	if v := os.Getenv("FEED_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Feed.Seed = n
		}
	}

	// WALLET_DEPOSITS overrides the demo balances entirely.
	// Example: "USDT:5250.00,BTC:2.3456,ETH:10"
	if v := os.Getenv("WALLET_DEPOSITS"); v != "" {
		deposits := make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				deposits[parts[0]] = parts[1]
			}
		}
		if len(deposits) > 0 {
			cfg.Wallet.Deposits = deposits
		}
	}

	return cfg
}
