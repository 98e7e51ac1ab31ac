package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration (admin sessions)
	JWT JWTConfig

	// Admin access configuration
	Admin AdminConfig

	// Pricing configuration
	Pricing PricingConfig

	// Payment provider configuration
	Iyzico     IyzicoConfig
	Turinvoice TurinvoiceConfig

	// Exchange rate configuration
	ExchangeRate ExchangeRateConfig

	// Email configuration
	Email EmailConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// AdminConfig holds admin dashboard access configuration
type AdminConfig struct {
	// Emails allowed to use the admin endpoints. All admin tokens are
	// re-checked against this list on every request.
	AllowedEmails []string
	// Bcrypt hash of the shared admin password
	PasswordHash string
}

// PricingConfig holds package pricing configuration
type PricingConfig struct {
	DepositFraction float64 // Fraction of total collected at booking time
	DiscountPercent float64 // Seasonal discount percentage (0 disables)
	DiscountStart   string  // MM-DD, inclusive
	DiscountEnd     string  // MM-DD, inclusive
}

// IyzicoConfig holds Iyzico card payment configuration
type IyzicoConfig struct {
	BaseURL       string
	APIKey        string
	SecretKey     string
	AllowDemoMode bool // When credentials are placeholders, accept only the test card
}

// TurinvoiceConfig holds Turinvoice hosted-invoice configuration
type TurinvoiceConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string // Shared secret carried in webhook payloads
	ReturnURL     string // Redirect target after hosted payment completes
}

// ExchangeRateConfig holds EUR->TRY conversion configuration
type ExchangeRateConfig struct {
	SourceURL    string
	FallbackRate float64
}

// EmailConfig holds confirmation email gateway configuration
type EmailConfig struct {
	Mode   string // "dev" logs instead of sending, "production" calls the API
	APIURL string
	APIKey string
	From   string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	BookingRequests int // Requests per window for booking/payment endpoints
	AdminRequests   int // Requests per window for admin list endpoints
	WindowSeconds   int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 28800)) * time.Second,
		},
		Admin: AdminConfig{
			AllowedEmails: getEnvAsSlice("ADMIN_EMAILS", nil),
			PasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Pricing: PricingConfig{
			DepositFraction: getEnvAsFloat("PRICING_DEPOSIT_FRACTION", 0.30),
			DiscountPercent: getEnvAsFloat("PRICING_DISCOUNT_PERCENT", 20),
			DiscountStart:   getEnv("PRICING_DISCOUNT_START", "12-01"),
			DiscountEnd:     getEnv("PRICING_DISCOUNT_END", "02-28"),
		},
		Iyzico: IyzicoConfig{
			BaseURL:       getEnv("IYZICO_BASE_URL", "https://api.iyzipay.com"),
			APIKey:        getEnv("IYZICO_API_KEY", ""),
			SecretKey:     getEnv("IYZICO_SECRET_KEY", ""),
			AllowDemoMode: getEnvAsBool("IYZICO_ALLOW_DEMO_MODE", true),
		},
		Turinvoice: TurinvoiceConfig{
			BaseURL:       getEnv("TURINVOICE_BASE_URL", "https://api.turinvoice.com"),
			APIKey:        getEnv("TURINVOICE_API_KEY", ""),
			WebhookSecret: getEnv("TURINVOICE_WEBHOOK_SECRET", ""),
			ReturnURL:     getEnv("TURINVOICE_RETURN_URL", ""),
		},
		ExchangeRate: ExchangeRateConfig{
			SourceURL:    getEnv("EXCHANGE_RATE_URL", "https://api.frankfurter.app/latest?from=EUR&to=TRY"),
			FallbackRate: getEnvAsFloat("EXCHANGE_RATE_FALLBACK", 36.50),
		},
		Email: EmailConfig{
			Mode:   getEnv("EMAIL_MODE", "dev"),
			APIURL: getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
			APIKey: getEnv("EMAIL_API_KEY", ""),
			From:   getEnv("EMAIL_FROM", "bookings@vistalens.com"),
		},
		RateLimit: RateLimitConfig{
			BookingRequests: getEnvAsInt("RATE_LIMIT_BOOKING_REQUESTS", 20),
			AdminRequests:   getEnvAsInt("RATE_LIMIT_ADMIN_REQUESTS", 60),
			WindowSeconds:   getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Pricing.DepositFraction <= 0 || c.Pricing.DepositFraction > 1 {
		return fmt.Errorf("PRICING_DEPOSIT_FRACTION must be in (0, 1]")
	}

	// Production requires real credentials; development can run in demo mode
	if c.Server.Environment == "production" {
		if c.Iyzico.APIKey == "" || c.Iyzico.SecretKey == "" {
			return fmt.Errorf("IYZICO_API_KEY and IYZICO_SECRET_KEY are required in production")
		}

		if c.Turinvoice.WebhookSecret == "" {
			return fmt.Errorf("TURINVOICE_WEBHOOK_SECRET is required in production")
		}

		if len(c.Admin.AllowedEmails) == 0 {
			return fmt.Errorf("ADMIN_EMAILS is required in production")
		}

		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production")
		}
	}

	return nil
}

// IsAdminEmail reports whether the given email is on the admin allowlist
func (c *Config) IsAdminEmail(email string) bool {
	for _, allowed := range c.Admin.AllowedEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
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
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
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
		log.Printf("Invalid float value for %s, using default: %f", key, defaultValue)
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
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
