package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ForceGold/models"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"20"` // seconds
	RequestsPerSec int    `env:"REQUESTS_PER_SEC" envDefault:"5"`
	MaxRetries     int    `env:"MAX_RETRIES" envDefault:"3"`

	// Data source
	Provider           string `env:"PROVIDER" envDefault:"twelvedata"` // twelvedata, alphavantage, massive, csv
	TwelveAPIKey       string `env:"TWELVE_API_KEY"`
	AlphaVantageAPIKey string `env:"ALPHAVANTAGE_API_KEY"`
	MassiveAPIKey      string `env:"MASSIVE_API_KEY"`
	CSVDir             string `env:"CSV_DIR" envDefault:"data"`

	// Instruments and window
	BaseSymbol          string   `env:"BASE_SYMBOL" envDefault:"XAU/USD"`
	CorrelationSymbol   string   `env:"CORRELATION_SYMBOL" envDefault:"UUP"`
	CorrelationVariants []string `env:"CORRELATION_VARIANTS"` // tried in order after CorrelationSymbol
	QuotePairs          []string `env:"QUOTE_PAIRS" envDefault:"EUR/USD,USD/JPY,GBP/USD"`
	Interval            string   `env:"INTERVAL" envDefault:"5min"`
	LookbackDays        int      `env:"LOOKBACK_DAYS" envDefault:"14"`

	// Analysis
	MinDataPoints      int     `env:"MIN_DATA_POINTS" envDefault:"100"`
	MaxInvalidFraction float64 `env:"MAX_INVALID_FRACTION" envDefault:"0.05"`
	EMAPeriod          int     `env:"EMA_PERIOD" envDefault:"20"`
	ScalingFactor      float64 `env:"SCALING_FACTOR" envDefault:"1000"`
	RegimeBands        string  `env:"REGIME_BANDS" envDefault:"-0.7,-0.3,0.3,0.7"`
	QuoteTableFile     string  `env:"QUOTE_TABLE_FILE"`

	// Cache
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"15"` // minutes

	// Persistence
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Notification
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 20)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", 3)

	cfg.Provider = getEnvWithDefault("PROVIDER", "twelvedata")
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.AlphaVantageAPIKey = os.Getenv("ALPHAVANTAGE_API_KEY")
	cfg.MassiveAPIKey = os.Getenv("MASSIVE_API_KEY")
	cfg.CSVDir = getEnvWithDefault("CSV_DIR", "data")

	cfg.BaseSymbol = getEnvWithDefault("BASE_SYMBOL", "XAU/USD")
	cfg.CorrelationSymbol = getEnvWithDefault("CORRELATION_SYMBOL", "UUP")
	cfg.CorrelationVariants = getEnvListWithDefault("CORRELATION_VARIANTS", nil)
	cfg.QuotePairs = getEnvListWithDefault("QUOTE_PAIRS", []string{"EUR/USD", "USD/JPY", "GBP/USD"})
	cfg.Interval = getEnvWithDefault("INTERVAL", "5min")
	cfg.LookbackDays = getEnvIntWithDefault("LOOKBACK_DAYS", 14)

	cfg.MinDataPoints = getEnvIntWithDefault("MIN_DATA_POINTS", models.DefaultMinSamples)
	cfg.MaxInvalidFraction = getEnvFloatWithDefault("MAX_INVALID_FRACTION", models.DefaultMaxInvalidFraction)
	cfg.EMAPeriod = getEnvIntWithDefault("EMA_PERIOD", models.DefaultEMASpan)
	cfg.ScalingFactor = getEnvFloatWithDefault("SCALING_FACTOR", models.DefaultScaleFactor)
	cfg.RegimeBands = getEnvWithDefault("REGIME_BANDS", "-0.7,-0.3,0.3,0.7")
	cfg.QuoteTableFile = os.Getenv("QUOTE_TABLE_FILE")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.CacheTTL = getEnvIntWithDefault("CACHE_TTL", 15)

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that are not validated by the analysis engine
func (c *Config) Validate() error {
	switch c.Provider {
	case "twelvedata", "alphavantage", "massive", "csv":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := models.ParseInterval(c.Interval); err != nil {
		return err
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("lookback days must be positive, got %d", c.LookbackDays)
	}
	if c.BaseSymbol == "" {
		return fmt.Errorf("base symbol is required")
	}
	if _, err := parseBands(c.RegimeBands); err != nil {
		return err
	}
	return nil
}

// Analysis builds the engine configuration, reading the quote table file when set
func (c *Config) Analysis() (models.AnalysisConfig, error) {
	bands, err := parseBands(c.RegimeBands)
	if err != nil {
		return models.AnalysisConfig{}, err
	}

	quotes := models.DefaultQuoteTable()
	if c.QuoteTableFile != "" {
		quotes, err = LoadQuoteTable(c.QuoteTableFile)
		if err != nil {
			return models.AnalysisConfig{}, err
		}
	}

	ac := models.AnalysisConfig{
		MinSamples:         c.MinDataPoints,
		MaxInvalidFraction: c.MaxInvalidFraction,
		Bands:              bands,
		EMASpan:            c.EMAPeriod,
		ScaleFactor:        c.ScalingFactor,
		Quotes:             quotes,
	}
	return ac, ac.Validate()
}

// IntervalDuration returns the parsed bar interval
func (c *Config) IntervalDuration() time.Duration {
	d, err := models.ParseInterval(c.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Window returns the lookback window ending at the start of today's UTC day,
// matching the "yesterday and earlier" window of the aggregate API
func (c *Config) Window(now time.Time) (time.Time, time.Time) {
	end := now.UTC().Truncate(24 * time.Hour)
	return end.AddDate(0, 0, -c.LookbackDays), end
}

// CacheTTLDuration converts CacheTTL minutes to a duration
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Minute
}

func parseBands(s string) (models.RegimeBands, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.RegimeBands{}, fmt.Errorf("regime bands need 4 comma-separated values, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.RegimeBands{}, fmt.Errorf("regime band %q: %w", p, err)
		}
		vals[i] = v
	}
	b := models.RegimeBands{
		StrongNegative:   vals[0],
		ModerateNegative: vals[1],
		ModeratePositive: vals[2],
		StrongPositive:   vals[3],
	}
	return b, b.Validate()
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
