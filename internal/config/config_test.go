package config

import (
	"testing"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("DB_PASSWORD", "test-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "gatehouse", cfg.Database.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 365, cfg.Server.AuditRetentionDays)
	assert.Equal(t, 5*time.Minute, cfg.Server.SweepInterval)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.False(t, cfg.Alerts.Enabled)
	assert.Equal(t, models.DefaultSecurityPolicy(), cfg.Policy)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "test-password")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("DB_PASSWORD", "test-password")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsWeakJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "changeme")
	t.Setenv("DB_PASSWORD", "test-password")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "twenty-char-secret!!")
	t.Setenv("DB_PASSWORD", "test-password")
	t.Setenv("ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AlertsRequireAddresses(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALERTS_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ALERT_FROM_ADDRESS", "security@example.com")
	t.Setenv("ALERT_TO_ADDRESS", "admins@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Alerts.Enabled)
}

func TestLoad_ClampsPolicyFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_LOGIN_ATTEMPTS", "1000")
	t.Setenv("SESSION_TIMEOUT_MINUTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.MaxMaxLoginAttempts, cfg.Policy.MaxLoginAttempts)
	assert.Equal(t, models.MinSessionTimeoutMinutes, cfg.Policy.SessionTimeoutMinutes)
}

func TestLoad_ParsesTrustedProxies(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "pw", Name: "gatehouse", SSLMode: "require",
	}
	assert.Equal(t, "host=db.internal port=5433 user=svc password=pw dbname=gatehouse sslmode=require", cfg.DSN())
}
