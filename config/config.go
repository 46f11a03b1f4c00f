package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	Port        string
	GoEnv       string
	LogLevel    string

	Auth0Domain          string
	Auth0Audience        string
	Auth0M2MClientID     string
	Auth0M2MClientSecret string
	Auth0DBConnection    string

	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	CaktoAPIURL        string
	CaktoClientID      string
	CaktoClientSecret  string
	CaktoAuthStyle     string // "params" (form body) or "header" (HTTP Basic)
	CaktoWebhookSecret string
	CaktoCheckoutURL   string

	AIGatewayURL    string
	AIGatewayAPIKey string
	AIModel         string

	ServiceAPIKey      string
	RateLimitPerMinute int
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production the environment is set directly, so missing .env files are fine
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		GoEnv:       getEnv("GO_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Auth0Domain:          getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:        getEnv("AUTH0_AUDIENCE", ""),
		Auth0M2MClientID:     getEnv("AUTH0_M2M_CLIENT_ID", ""),
		Auth0M2MClientSecret: getEnv("AUTH0_M2M_CLIENT_SECRET", ""),
		Auth0DBConnection:    getEnv("AUTH0_DB_CONNECTION", "Username-Password-Authentication"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		CaktoAPIURL:        getEnv("CAKTO_API_URL", "https://api.cakto.com.br"),
		CaktoClientID:      getEnv("CAKTO_CLIENT_ID", ""),
		CaktoClientSecret:  getEnv("CAKTO_CLIENT_SECRET", ""),
		CaktoAuthStyle:     getEnv("CAKTO_AUTH_STYLE", "params"),
		CaktoWebhookSecret: getEnv("CAKTO_WEBHOOK_SECRET", ""),
		CaktoCheckoutURL:   getEnv("CAKTO_CHECKOUT_URL", "https://pay.cakto.com.br"),

		AIGatewayURL:    getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
		AIGatewayAPIKey: getEnv("AI_GATEWAY_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", "google/gemini-2.5-flash"),

		ServiceAPIKey:      getEnv("SERVICE_API_KEY", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CaktoAuthStyle != "params" && c.CaktoAuthStyle != "header" {
		return fmt.Errorf("CAKTO_AUTH_STYLE must be \"params\" or \"header\", got %q", c.CaktoAuthStyle)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// HasCaktoCredentials reports whether the payment provider API can be called
func (c *Config) HasCaktoCredentials() bool {
	return c.CaktoClientID != "" && c.CaktoClientSecret != ""
}

// HasAuth0Management reports whether the Auth0 Management API can be called
func (c *Config) HasAuth0Management() bool {
	return c.Auth0Domain != "" && c.Auth0M2MClientID != "" && c.Auth0M2MClientSecret != ""
}

// GetConfig returns the loaded configuration, or an empty one if Load was never called
func GetConfig() *Config {
	if appConfig == nil {
		return &Config{}
	}
	return appConfig
}

// SetConfig replaces the loaded configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
