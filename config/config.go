package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Stripe configs
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	PaymentCurrency      string

	// Server configs
	Port        string
	Environment string

	// Auth configs
	JWTSecret          string
	JWTIssuer          string
	JWTTTL             time.Duration
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	TrustProxyHeaders  bool

	// Storage configs
	DatabaseURL   string
	StorageDir    string
	PublicBaseURL string

	// Email configs
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	SupportEmail string
	CompanyName  string
	FrontendURL  string

	// Booking configs
	BookingExpiry time.Duration

	// Additional configs
	CorsAllowedOrigins []string
	LogLevel           string
}

// Load initializes configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PAYMENT_CURRENCY", "ngn")
	v.SetDefault("JWT_ISSUER", "carebook")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("TRUST_PROXY_HEADERS", false)
	v.SetDefault("STORAGE_DIR", "./data/storage")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("FROM_NAME", "Diamond Masters Care")
	v.SetDefault("COMPANY_NAME", "Diamond Masters Care")
	v.SetDefault("BOOKING_EXPIRY", "24h")

	config := &Config{
		Port:                 v.GetString("PORT"),
		Environment:          v.GetString("ENVIRONMENT"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		StripeSecretKey:      v.GetString("STRIPE_SECRET_KEY"),
		StripePublishableKey: v.GetString("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:      strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTIssuer:            v.GetString("JWT_ISSUER"),
		JWTTTL:               v.GetDuration("JWT_TTL"),
		AuthRateLimitRPS:     v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
		AuthRateLimitBurst:   v.GetInt("AUTH_RATE_LIMIT_BURST"),
		TrustProxyHeaders:    v.GetBool("TRUST_PROXY_HEADERS"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		StorageDir:           v.GetString("STORAGE_DIR"),
		PublicBaseURL:        strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		SMTPHost:             v.GetString("SMTP_HOST"),
		SMTPPort:             v.GetInt("SMTP_PORT"),
		SMTPUsername:         v.GetString("SMTP_USERNAME"),
		SMTPPassword:         v.GetString("SMTP_PASSWORD"),
		FromEmail:            v.GetString("FROM_EMAIL"),
		FromName:             v.GetString("FROM_NAME"),
		SupportEmail:         v.GetString("SUPPORT_EMAIL"),
		CompanyName:          v.GetString("COMPANY_NAME"),
		FrontendURL:          strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		BookingExpiry:        v.GetDuration("BOOKING_EXPIRY"),
	}

	// Parse CORS allowed origins
	corsOrigins := v.GetString("CORS_ALLOWED_ORIGINS")
	if corsOrigins != "" {
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.CorsAllowedOrigins = append(config.CorsAllowedOrigins, origin)
			}
		}
	}
	if len(config.CorsAllowedOrigins) == 0 {
		config.CorsAllowedOrigins = []string{"*"}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports the first missing or malformed setting
func (c *Config) Validate() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("required environment variable not set: STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("required environment variable not set: STRIPE_WEBHOOK_SECRET")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("required environment variable not set: JWT_SECRET")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.BookingExpiry <= 0 {
		return fmt.Errorf("BOOKING_EXPIRY must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SMTPConfigured reports whether enough SMTP settings are present to send real email
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0 && c.FromEmail != ""
}
