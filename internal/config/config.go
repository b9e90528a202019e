package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/mr-tron/base58"
)

type Config struct {
	// API server
	APIAddr string
	APIKey  string
	DevMode bool

	// RPC settings
	RPCUrl       string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Jupiter router
	JupiterBaseURL   string
	JupiterPriceURL  string
	JupiterTokensURL string
	JupiterAPIKey    string

	// Fee schedule (fixed per process, never derived per request)
	FeeBps      int
	FeeAccount  string
	SlippageBps int

	// Recycling target
	BaseMint string

	// Token directory cache
	TokenDirectoryTTL time.Duration

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// AI agent (optional)
	OpenRouterAPIKey string

	// Sweeper CLI
	WalletPrivateKey string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 1*time.Second),

		// Jupiter
		JupiterBaseURL:   getEnv("JUPITER_BASE_URL", "https://quote-api.jup.ag/v6"),
		JupiterPriceURL:  getEnv("JUPITER_PRICE_URL", "https://lite-api.jup.ag/price/v2"),
		JupiterTokensURL: getEnv("JUPITER_TOKENS_URL", "https://token.jup.ag/all"),
		JupiterAPIKey:    getEnv("JUPITER_API_KEY", ""),

		// Fees
		FeeBps:      getIntEnv("FEE_BPS", constants.DefaultFeeBps),
		FeeAccount:  getEnv("FEE_ACCOUNT", ""),
		SlippageBps: getIntEnv("SLIPPAGE_BPS", constants.DefaultSlippageBps),

		// Target
		BaseMint: getEnv("BASE_MINT", constants.WSOLMint),

		// Directory cache
		TokenDirectoryTTL: getDurationEnv("TOKEN_DIRECTORY_TTL", constants.TokenDirectoryTTL),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "recycler"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),

		// Sweeper
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
	}
}

// Validate rejects configurations that would misprice fees or point at
// nothing. Called once at startup; handlers assume a valid config.
func (c *Config) Validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if c.FeeBps < 0 || c.FeeBps > constants.MaxFeeBps {
		return fmt.Errorf("FEE_BPS must be within [0, %d], got %d", constants.MaxFeeBps, c.FeeBps)
	}
	if c.SlippageBps <= 0 || c.SlippageBps > constants.MaxFeeBps {
		return fmt.Errorf("SLIPPAGE_BPS must be within (0, %d], got %d", constants.MaxFeeBps, c.SlippageBps)
	}
	if c.FeeBps > 0 && c.FeeAccount == "" {
		return fmt.Errorf("FEE_ACCOUNT is required when FEE_BPS > 0")
	}
	if c.FeeAccount != "" {
		if _, err := base58.Decode(c.FeeAccount); err != nil {
			return fmt.Errorf("FEE_ACCOUNT is not valid base58: %w", err)
		}
	}
	if _, err := base58.Decode(c.BaseMint); err != nil {
		return fmt.Errorf("BASE_MINT is not valid base58: %w", err)
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
