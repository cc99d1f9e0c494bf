package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"volumeBreakoutBot/internal/adapters/logger" // Import the logger package for LogLevel
	"volumeBreakoutBot/internal/strategy/breakout"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market
	Symbol     string
	Interval   string // Kline interval, e.g. "1m"
	QuoteAsset string // Asset the balance and sizing are denominated in, e.g. "USDT"

	// Strategy Parameters
	Strategy breakout.Params

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int

	// Periodic status report interval (0 disables)
	StatusInterval time.Duration
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Market
	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.Interval = getEnv("INTERVAL", "1m")
	if cfg.Interval == "" {
		errs = append(errs, "INTERVAL must be set")
	}
	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")
	if cfg.QuoteAsset == "" {
		errs = append(errs, "QUOTE_ASSET must be set")
	}

	// Strategy Parameters
	cfg.Strategy.VolumePeriod, err = getEnvAsIntRequired("VOLUME_PERIOD", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid VOLUME_PERIOD: %v", err))
	}
	cfg.Strategy.VolumeMultiplier, err = getEnvAsFloatRequired("VOLUME_MULTIPLIER", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid VOLUME_MULTIPLIER: %v", err))
	}
	cfg.Strategy.PriceChangeThreshold, err = getEnvAsFloatRequired("PRICE_CHANGE_THRESHOLD", 1.5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PRICE_CHANGE_THRESHOLD: %v", err))
	}
	cfg.Strategy.CapitalUsagePercent, err = getEnvAsFloatRequired("CAPITAL_USAGE_PERCENT", 10.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CAPITAL_USAGE_PERCENT: %v", err))
	}
	cfg.Strategy.AddPositionThreshold, err = getEnvAsFloatRequired("ADD_POSITION_THRESHOLD", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ADD_POSITION_THRESHOLD: %v", err))
	}
	cfg.Strategy.StopLossThreshold, err = getEnvAsFloatRequired("STOP_LOSS_THRESHOLD", 3.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS_THRESHOLD: %v", err))
	}
	cfg.Strategy.MaxPositions, err = getEnvAsIntRequired("MAX_POSITIONS", 3)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_POSITIONS: %v", err))
	}
	cfg.Strategy.MinOrderSize, err = getEnvAsFloatRequired("MIN_ORDER_SIZE", 0.0001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_ORDER_SIZE: %v", err))
	}
	cfg.Strategy.MaxOrderSize, err = getEnvAsFloatRequired("MAX_ORDER_SIZE", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_ORDER_SIZE: %v", err))
	}

	// Range validation lives with the parameters themselves; surface it here
	// alongside the parse errors so a bad deployment reports everything at once.
	if err := cfg.Strategy.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trading_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	statusIntervalSeconds := getEnvAsInt("STATUS_INTERVAL_SECONDS", 300)
	if statusIntervalSeconds < 0 {
		errs = append(errs, "STATUS_INTERVAL_SECONDS cannot be negative")
	}
	cfg.StatusInterval = time.Duration(statusIntervalSeconds) * time.Second

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
