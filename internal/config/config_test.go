package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, "dynamo", cfg.StoreDriver)
	assert.Equal(t, 10*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "credentials", cfg.DynamoTables.Credentials)
	assert.Equal(t, "credential_emails", cfg.DynamoTables.CredentialEmails)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "1h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("PUBLIC_BASE_URL", "https://auth.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "https://auth.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "ten days")
	t.Setenv("BCRYPT_COST", "high")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg := Load()

	assert.Equal(t, 10*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.InDelta(t, 100.0/60.0, cfg.RateLimitRPS, 1e-9)
}
