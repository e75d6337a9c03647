package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Gateway     GatewayConfig
	Redis       RedisConfig
	API         APIConfig
	// PublicBaseURL is the storefront's externally reachable base URL,
	// used to build the gateway redirect and callback URLs
	PublicBaseURL string
	LogLevel      string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig holds the hosted-payment gateway merchant credentials.
// AuthBaseURL and PayBaseURL differ per environment (sandbox vs live).
type GatewayConfig struct {
	MerchantID    string
	ClientID      string
	ClientSecret  string
	ClientVersion string
	SaltKey       string
	SaltIndex     string
	AuthBaseURL   string
	PayBaseURL    string
}

type RedisConfig struct {
	Addr string
}

type APIConfig struct {
	AdminKeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("GATEWAY_CLIENT_VERSION", "1")
	viper.SetDefault("GATEWAY_SALT_INDEX", "1")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "shopapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Gateway: GatewayConfig{
			MerchantID:    getEnvOrViper("GATEWAY_MERCHANT_ID", ""),
			ClientID:      getEnvOrViper("GATEWAY_CLIENT_ID", ""),
			ClientSecret:  getEnvOrViper("GATEWAY_CLIENT_SECRET", ""),
			ClientVersion: getEnvOrViper("GATEWAY_CLIENT_VERSION", "1"),
			SaltKey:       getEnvOrViper("GATEWAY_SALT_KEY", ""),
			SaltIndex:     getEnvOrViper("GATEWAY_SALT_INDEX", "1"),
			AuthBaseURL:   getEnvOrViper("GATEWAY_AUTH_BASE_URL", ""),
			PayBaseURL:    getEnvOrViper("GATEWAY_PAY_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr: getEnvOrViper("REDIS_ADDR", ""),
		},
		API: APIConfig{
			AdminKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
		PublicBaseURL: getEnvOrViper("PUBLIC_BASE_URL", "http://localhost:8080"),
		LogLevel:      getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields. Missing gateway credentials are a fatal
	// configuration error, caught at startup rather than mid-checkout.
	if cfg.Gateway.MerchantID == "" {
		return nil, fmt.Errorf("GATEWAY_MERCHANT_ID is required")
	}
	if cfg.Gateway.ClientID == "" {
		return nil, fmt.Errorf("GATEWAY_CLIENT_ID is required")
	}
	if cfg.Gateway.ClientSecret == "" {
		return nil, fmt.Errorf("GATEWAY_CLIENT_SECRET is required")
	}
	if cfg.Gateway.SaltKey == "" {
		return nil, fmt.Errorf("GATEWAY_SALT_KEY is required")
	}
	if cfg.Gateway.AuthBaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_AUTH_BASE_URL is required")
	}
	if cfg.Gateway.PayBaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_PAY_BASE_URL is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
