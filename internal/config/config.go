// Package config provides configuration management for the stock tracker
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Yahoo    YahooConfig
	Jobs     JobsConfig
	Ledger   LedgerConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// YahooConfig holds quote provider configuration
type YahooConfig struct {
	QuoteBaseURL   string
	QueryBaseURL   string
	RequestsPerSec float64
	Timeout        time.Duration
	CacheTTL       time.Duration
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	SnapshotEnabled      bool
	PriceRefreshEnabled  bool
	PriceRefreshInterval time.Duration
	StoreTimeout         time.Duration
}

// LedgerConfig holds ledger configuration
type LedgerConfig struct {
	// InitialInvestment is the fixed baseline against which snapshot
	// total return is computed. The default matches the cash_account
	// seed in migrations/000001_init_ledger.up.sql.
	InitialInvestment decimal.Decimal
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	initialInvestment, err := getEnvAsDecimal("INITIAL_INVESTMENT", decimal.NewFromInt(500000))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "stock_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Yahoo: YahooConfig{
			QuoteBaseURL:   getEnv("YAHOO_QUOTE_BASE_URL", "https://query2.finance.yahoo.com"),
			QueryBaseURL:   getEnv("YAHOO_QUERY_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestsPerSec: getEnvAsFloat("YAHOO_REQUESTS_PER_SEC", 4),
			Timeout:        getEnvAsDuration("YAHOO_TIMEOUT", 8*time.Second),
			CacheTTL:       getEnvAsDuration("QUOTE_CACHE_TTL", 60*time.Second),
		},
		Jobs: JobsConfig{
			SnapshotEnabled:      getEnvAsBool("SNAPSHOT_ENABLED", true),
			PriceRefreshEnabled:  getEnvAsBool("PRICE_REFRESH_ENABLED", true),
			PriceRefreshInterval: getEnvAsDuration("PRICE_REFRESH_INTERVAL", 15*time.Minute),
			StoreTimeout:         getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		},
		Ledger: LedgerConfig{
			InitialInvestment: initialInvestment,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDecimal gets an environment variable as a decimal with a default
// value. Unlike the other helpers a malformed value is an error: a wrong
// initial investment silently corrupts every snapshot's return rate.
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal for %s: %w", key, err)
	}
	return value, nil
}
