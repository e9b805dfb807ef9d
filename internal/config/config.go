package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Gateway    GatewayConfig
	Ledger     LedgerConfig
	Bank       BankConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Withdrawal WithdrawalConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// GatewayConfig holds external payment gateway configuration.
type GatewayConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string // pre-shared value expected in the verif-hash header
	Currency      string
	Timeout       time.Duration
}

// LedgerConfig holds ledger business parameters.
type LedgerConfig struct {
	CommissionRate float64 // platform share of each gross sale, 0..1
}

// BankConfig holds the bank directory source configuration.
type BankConfig struct {
	FilePath  string
	S3Enabled bool
	S3Bucket  string
	S3Region  string
	S3Key     string
}

// KafkaConfig holds order-event publishing configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
}

// RedisConfig holds the optional notification-dedup cache configuration.
type RedisConfig struct {
	Enabled bool
	Addr    string
}

// WithdrawalConfig holds payout saga recovery parameters.
type WithdrawalConfig struct {
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "vendora"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:       getEnv("GATEWAY_BASE_URL", "https://api.flutterwave.com/v3"),
			SecretKey:     getEnv("GATEWAY_SECRET_KEY", ""),
			WebhookSecret: getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			Currency:      getEnv("GATEWAY_CURRENCY", "NGN"),
			Timeout:       time.Duration(getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Ledger: LedgerConfig{
			CommissionRate: getEnvAsFloat("COMMISSION_RATE", 0.10),
		},
		Bank: BankConfig{
			FilePath:  getEnv("BANK_DIRECTORY_FILE", ""),
			S3Enabled: getEnvAsBool("BANK_S3_ENABLED", false),
			S3Bucket:  getEnv("BANK_S3_BUCKET", ""),
			S3Region:  getEnv("BANK_S3_REGION", "us-east-1"),
			S3Key:     getEnv("BANK_S3_KEY", "banks/directory.json"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		},
		Redis: RedisConfig{
			Enabled: getEnvAsBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Withdrawal: WithdrawalConfig{
			SweepInterval: time.Duration(getEnvAsInt("WITHDRAWAL_SWEEP_INTERVAL_SECONDS", 300)) * time.Second,
			StaleAfter:    time.Duration(getEnvAsInt("WITHDRAWAL_STALE_AFTER_SECONDS", 900)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}

	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("gateway webhook secret is required")
	}

	if c.Ledger.CommissionRate < 0 || c.Ledger.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be in [0, 1): %f", c.Ledger.CommissionRate)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Bank.S3Enabled {
		if c.Bank.S3Bucket == "" {
			return fmt.Errorf("bank S3 bucket is required when bank S3 is enabled")
		}
		if c.Bank.S3Region == "" {
			return fmt.Errorf("bank S3 region is required when bank S3 is enabled")
		}
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Withdrawal.StaleAfter < time.Minute {
		return fmt.Errorf("withdrawal stale-after must be at least one minute")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
