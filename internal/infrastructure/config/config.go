package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ProviderYFinance   = "yfinance"
	ProviderYahoo      = "yahoo"
	ProviderTwelveData = "twelvedata"
	ProviderFinnhub    = "finnhub"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreOracle   = "oracle"
	StoreRedis    = "redis"
)

type Config struct {
	ServerPort string
	ServerHost string
	LogLevel   string

	FXURL         string
	IndexURL      string
	UserAgent     string
	HTTPTimeout   time.Duration
	SourceTimeout time.Duration

	MarketDataProvider string
	YFinanceBaseURL    string
	TwelveDataAPIKey   string
	FinnhubAPIKey      string

	IndexWindow   time.Duration
	HistoryWindow time.Duration

	ListingMarket string
	ListingTTL    time.Duration
	ListingStore  string
	DBDSN         string
	RedisAddr     string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:         getEnvOrDefault("SERVER_HOST", "localhost"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		FXURL:              os.Getenv("FX_URL"),
		IndexURL:           os.Getenv("INDEX_URL"),
		UserAgent:          os.Getenv("USER_AGENT"),
		MarketDataProvider: strings.ToLower(getEnvOrDefault("MARKET_DATA_PROVIDER", ProviderYFinance)),
		YFinanceBaseURL:    os.Getenv("YFINANCE_BASE_URL"),
		TwelveDataAPIKey:   os.Getenv("TWELVE_DATA_API_KEY"),
		FinnhubAPIKey:      os.Getenv("FINNHUB_API_KEY"),
		ListingMarket:      getEnvOrDefault("LISTING_MARKET", "KRX"),
		ListingStore:       strings.ToLower(getEnvOrDefault("LISTING_STORE", StoreMemory)),
		DBDSN:              os.Getenv("DB_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
	}

	durations := []struct {
		key   string
		def   string
		field *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"SOURCE_TIMEOUT", "15s", &cfg.SourceTimeout},
		{"INDEX_WINDOW", "240h", &cfg.IndexWindow},
		{"HISTORY_WINDOW", "2160h", &cfg.HistoryWindow},
		{"LISTING_TTL", "1h", &cfg.ListingTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnvOrDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", d.key)
		}
		*d.field = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.MarketDataProvider {
	case ProviderYFinance, ProviderYahoo:
	case ProviderTwelveData:
		if c.TwelveDataAPIKey == "" {
			return fmt.Errorf("TWELVE_DATA_API_KEY environment variable is required for twelvedata provider")
		}
	case ProviderFinnhub:
		if c.FinnhubAPIKey == "" {
			return fmt.Errorf("FINNHUB_API_KEY environment variable is required for finnhub provider")
		}
	default:
		return fmt.Errorf("unsupported MARKET_DATA_PROVIDER: %s", c.MarketDataProvider)
	}

	switch c.ListingStore {
	case StoreMemory:
	case StorePostgres, StoreOracle:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN environment variable is required for %s listing store", c.ListingStore)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR environment variable is required for redis listing store")
		}
	default:
		return fmt.Errorf("unsupported LISTING_STORE: %s", c.ListingStore)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
