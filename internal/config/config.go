package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl       string
	Commitment   string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Jupiter aggregator
	JupiterBaseURL string
	JupiterAPIKey  string
	SlippageBps    int

	// Wallet: base58 or solana-keygen JSON array. Empty means watch-only.
	WalletPrivateKey string
	// WalletPublicKey enables watch-only mode when no private key is set.
	WalletPublicKey string

	// Redis settings (recent history, flags). Empty disables both.
	RedisAddr string

	// ClickHouse settings (durable history, analytics). Empty addr disables.
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// AI agent
	OpenRouterAPIKey string
	AIModel          string

	// HTTP API
	APIAddr    string
	APIKey     string
	DevMode    bool
	QuoteDelay time.Duration
}

func Load() *Config {
	return &Config{
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		Commitment:   getEnv("SOLANA_COMMITMENT", "confirmed"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		JupiterBaseURL: getEnv("JUPITER_BASE_URL", ""),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),
		SlippageBps:    getIntEnv("SLIPPAGE_BPS", 50),

		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
		WalletPublicKey:  getEnv("WALLET_PUBLIC_KEY", ""),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "swapdesk"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", ""),

		APIAddr:    getEnv("API_ADDR", ":8090"),
		APIKey:     getEnv("API_KEY", ""),
		DevMode:    getBoolEnv("DEV_MODE", false),
		QuoteDelay: getDurationEnv("QUOTE_DEBOUNCE", 500*time.Millisecond),
	}
}

// Validate checks the combinations that cannot work at runtime.
func (c *Config) Validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if c.SlippageBps < 0 || c.SlippageBps > 10000 {
		return fmt.Errorf("SLIPPAGE_BPS must be between 0 and 10000")
	}
	if c.QuoteDelay < 0 {
		return fmt.Errorf("QUOTE_DEBOUNCE must not be negative")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
