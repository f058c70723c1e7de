// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Blockchain settings
	RPCProviderURL   string
	ChainID          int64
	WalletPrivateKey string // Hex-encoded, 0x prefix normalized on load
	KaiascanAPIKey   string // Block explorer API key (optional)

	// Contract addresses
	YieldAggregatorAddr string
	TradeAnalyzerAddr   string
	FiatSwapAddr        string
	DemoTradingAddr     string

	// Payment provider (fiat swap settlement)
	PaymentAPIURL string
	PaymentAPIKey string

	// Market data feed
	MarketDataURL string
	OraklAPIKey   string

	// Default token the chat router uses for yield lookups
	YieldToken string
}

// Kairos testnet defaults
const (
	DefaultChainID             = 1001 // Kairos
	DefaultYieldAggregatorAddr = "0x5022a88F43963b48fcb4a2917572089DdBc687b1"
	DefaultTradeAnalyzerAddr   = "0x5022a88F43963b48fcb4a2917572089DdBc687b1"
	DefaultFiatSwapAddr        = "0x7ff31bc4F0Cd5581779bAC0Aad30e38f1d48B898"
	DefaultDemoTradingAddr     = "0x0F7baEc7AEB98bCE788378d560463B738782DDBA"
	DefaultPaymentAPIURL       = "https://api.alchemy.com/v1/swap"
	DefaultMarketDataURL       = "https://orakl.network/api/data-feed"
	DefaultYieldToken          = "0x0000000000000000000000000000000000000001"
	DefaultPort                = "8080"
	DefaultEnv                 = "development"
	DefaultLogLevel            = "info"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		RPCProviderURL:      os.Getenv("RPC_PROVIDER_URL"), // Required, no default
		ChainID:             getEnvInt64("CHAIN_ID", DefaultChainID),
		WalletPrivateKey:    strings.TrimSpace(os.Getenv("WALLET_PRIVATE_KEY")), // Required
		KaiascanAPIKey:      os.Getenv("KAIASCAN_API_KEY"),
		YieldAggregatorAddr: getEnv("YIELD_AGGREGATOR_ADDR", DefaultYieldAggregatorAddr),
		TradeAnalyzerAddr:   getEnv("TRADE_ANALYZER_ADDR", DefaultTradeAnalyzerAddr),
		FiatSwapAddr:        getEnv("FIAT_SWAP_ADDR", DefaultFiatSwapAddr),
		DemoTradingAddr:     getEnv("DEMO_TRADING_ADDR", DefaultDemoTradingAddr),
		PaymentAPIURL:       getEnv("PAYMENT_API_URL", DefaultPaymentAPIURL),
		PaymentAPIKey:       os.Getenv("PAYMENT_API_KEY"),
		MarketDataURL:       getEnv("MARKET_DATA_URL", DefaultMarketDataURL),
		OraklAPIKey:         os.Getenv("ORAKL_API_KEY"),
		YieldToken:          getEnv("YIELD_TOKEN", DefaultYieldToken),
	}

	// Normalize the private key to always carry the 0x prefix
	if cfg.WalletPrivateKey != "" && !strings.HasPrefix(cfg.WalletPrivateKey, "0x") {
		cfg.WalletPrivateKey = "0x" + cfg.WalletPrivateKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.WalletPrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is required")
	}

	key := strings.TrimPrefix(c.WalletPrivateKey, "0x")
	if len(key) != 64 {
		return fmt.Errorf("WALLET_PRIVATE_KEY must be 64 hex characters (with or without 0x prefix)")
	}

	if c.RPCProviderURL == "" {
		return fmt.Errorf("RPC_PROVIDER_URL is required")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
