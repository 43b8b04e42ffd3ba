package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_fake_key")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "ngn", cfg.PaymentCurrency)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.BookingExpiry)
	assert.Equal(t, []string{"*"}, cfg.CorsAllowedOrigins)
	assert.Equal(t, "Diamond Masters Care", cfg.CompanyName)
	assert.False(t, cfg.SMTPConfigured())
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PAYMENT_CURRENCY", "USD")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.com/")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("FROM_EMAIL", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "usd", cfg.PaymentCurrency)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CorsAllowedOrigins)
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.SMTPConfigured())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestValidateProductionSecretLength(t *testing.T) {
	cfg := &Config{
		StripeSecretKey:     "sk_live_x",
		StripeWebhookSecret: "whsec_live_x",
		JWTSecret:           "short",
		Environment:         "production",
		JWTTTL:              time.Hour,
		BookingExpiry:       time.Hour,
	}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestLoadRequiresWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
}
