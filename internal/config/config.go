// Package config loads bot settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDonationAddress = "CW5SGHVjrHJks3XTrLDmcN4NQJdn2aySAPoA67799d3j"

type Config struct {
	// Telegram settings
	TelegramToken string
	BotMode       string // "webhook" or "polling"
	WebhookURL    string
	WebhookSecret string
	Port          string

	// Generative backend settings
	AIProvider          string // "gemini" or "openai"
	AIModel             string
	GeminiAPIKey        string
	OpenAIAPIKey        string
	MaxAIRequests       int // daily cap (0 = unlimited)
	AIRequestsPerMinute int

	// News settings
	FeedsConfigPath string
	NewsCacheSize   int
	NewsCacheFile   string

	// Market data settings
	PriceLimit    int
	PriceCacheTTL time.Duration
	CandleLimit   int
	QuoteAsset    string
	ChartDir      string

	// Preference store
	StoreDriver string // bunt | sqlite | postgres
	StoreDSN    string

	// App settings
	Debug            bool
	LogLevel         string
	HTTPTimeout      time.Duration
	DonationAddress  string
	EnableMonitoring bool
	MonitoringPort   string
}

func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		// Default values
		BotMode:             "webhook",
		Port:                "8000",
		AIProvider:          "gemini",
		AIRequestsPerMinute: 30,
		FeedsConfigPath:     "configs/feeds.yaml",
		NewsCacheSize:       20,
		PriceLimit:          15,
		PriceCacheTTL:       30 * time.Second,
		CandleLimit:         100,
		QuoteAsset:          "USDT",
		StoreDriver:         "bunt",
		StoreDSN:            "user_settings.db",
		LogLevel:            "info",
		HTTPTimeout:         10 * time.Second,
		DonationAddress:     defaultDonationAddress,
		MonitoringPort:      "8080",
	}

	// Load from environment
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")
	cfg.WebhookSecret = os.Getenv("WEBHOOK_SECRET")
	cfg.NewsCacheFile = os.Getenv("NEWS_CACHE_FILE")
	cfg.ChartDir = getEnvOrDefault("CHART_DIR", os.TempDir())

	cfg.BotMode = strings.ToLower(getEnvOrDefault("BOT_MODE", cfg.BotMode))
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.AIProvider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", cfg.AIProvider))
	cfg.AIModel = os.Getenv("AI_MODEL")
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.QuoteAsset = strings.ToUpper(getEnvOrDefault("QUOTE_ASSET", cfg.QuoteAsset))
	cfg.StoreDriver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", cfg.StoreDriver))
	cfg.StoreDSN = getEnvOrDefault("STORE_DSN", cfg.StoreDSN)
	cfg.DonationAddress = getEnvOrDefault("DONATION_ADDRESS", cfg.DonationAddress)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", 0)
	if v := getEnvIntOrDefault("AI_REQUESTS_PER_MINUTE", cfg.AIRequestsPerMinute); v > 0 {
		cfg.AIRequestsPerMinute = v
	}
	if v := getEnvIntOrDefault("NEWS_CACHE_SIZE", cfg.NewsCacheSize); v > 0 {
		cfg.NewsCacheSize = v
	}
	if v := getEnvIntOrDefault("PRICE_LIMIT", cfg.PriceLimit); v > 0 {
		cfg.PriceLimit = v
	}
	if v := getEnvIntOrDefault("CANDLE_LIMIT", cfg.CandleLimit); v > 0 {
		cfg.CandleLimit = v
	}

	if v := os.Getenv("PRICE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.PriceCacheTTL = d
		}
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.HTTPTimeout = d
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		cfg.EnableMonitoring = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	switch c.AIProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for AI_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for AI_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("AI_PROVIDER must be 'gemini' or 'openai'")
	}
	if c.BotMode != "webhook" && c.BotMode != "polling" {
		return fmt.Errorf("BOT_MODE must be 'webhook' or 'polling'")
	}
	switch c.StoreDriver {
	case "bunt", "sqlite", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER must be 'bunt', 'sqlite' or 'postgres'")
	}
	if c.StoreDriver == "postgres" && !strings.Contains(c.StoreDSN, "://") && !strings.Contains(c.StoreDSN, "=") {
		return fmt.Errorf("STORE_DSN must be a postgres connection string")
	}
	return nil
}

// APIKey returns the credential of the selected generative provider.
func (c *Config) APIKey() string {
	if c.AIProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}
