package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
	Sync     SyncConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
	// Per-IP rate limit on the webhook endpoints. The provider redelivers
	// anything answered with 429.
	RateLimitRPS   float64
	RateLimitBurst int
}

// SyncConfig holds background synchronization configuration
type SyncConfig struct {
	// PlanSyncInterval enables periodic full plan imports when positive
	PlanSyncInterval time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ProviderConfig holds billing provider API configuration
type ProviderConfig struct {
	BaseURL string // Base URL of the provider REST API
	APIKey  string // Secret API key; leave empty to load it from the secret manager
	// APIKeySecretPath is the secret-manager path holding the API key; used
	// when APIKey is empty
	APIKeySecretPath string
	// ValidateWebhooks re-fetches every delivered event by id before applying
	// it. Costs one API round-trip per event; defeats forged payloads.
	ValidateWebhooks bool
	Timeout          int // Request timeout in seconds (default: 30)
	// MaxRetries bounds retries of idempotent provider requests
	MaxRetries int
}

// SecretsConfig selects and configures the secret manager backend
type SecretsConfig struct {
	Backend       string // local, aws, vault
	LocalPath     string // base directory for the local backend
	AWSRegion     string
	VaultAddress  string
	VaultToken    string
	VaultMount    string
	VaultRoleID   string
	VaultSecretID string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 50),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "billing_sync"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Provider: ProviderConfig{
			BaseURL:          getEnv("PROVIDER_BASE_URL", "https://api.stripe.com/v1"),
			APIKey:           getEnv("PROVIDER_API_KEY", ""),
			APIKeySecretPath: getEnv("PROVIDER_API_KEY_SECRET_PATH", ""),
			ValidateWebhooks: getEnvAsBool("WEBHOOK_VALIDATE", true),
			Timeout:          getEnvAsInt("PROVIDER_TIMEOUT", 30),
			MaxRetries:       getEnvAsInt("PROVIDER_MAX_RETRIES", 2),
		},
		Secrets: SecretsConfig{
			Backend:       getEnv("SECRETS_BACKEND", "local"),
			LocalPath:     getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			VaultAddress:  getEnv("VAULT_ADDR", ""),
			VaultToken:    getEnv("VAULT_TOKEN", ""),
			VaultMount:    getEnv("VAULT_MOUNT_PATH", "secret"),
			VaultRoleID:   getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID: getEnv("VAULT_SECRET_ID", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Sync: SyncConfig{
			PlanSyncInterval: getEnvAsDuration("PLAN_SYNC_INTERVAL", 0),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Provider.APIKey == "" && cfg.Provider.APIKeySecretPath == "" {
		return nil, fmt.Errorf("PROVIDER_API_KEY or PROVIDER_API_KEY_SECRET_PATH is required")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
