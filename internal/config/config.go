package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/finchworks/gatehouse/internal/models"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Alerts   AlertsConfig
	Policy   models.SecurityPolicy
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port               string
	Env                string
	LogLevel           string
	TrustedProxies     []string
	SweepInterval      time.Duration
	AuditRetentionDays int
}

type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

type AlertsConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
	ToAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "gatehouse"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Env:                env,
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			TrustedProxies:     parseTrustedProxies(),
			SweepInterval:      getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
			AuditRetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 365),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		Alerts: AlertsConfig{
			Enabled:     getEnvAsBool("ALERTS_ENABLED", false),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("ALERT_FROM_ADDRESS", ""),
			ToAddress:   getEnv("ALERT_TO_ADDRESS", ""),
		},
		Policy: loadPolicyDefaults(),
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if cfg.Alerts.Enabled && (cfg.Alerts.FromAddress == "" || cfg.Alerts.ToAddress == "") {
		return nil, fmt.Errorf("ALERT_FROM_ADDRESS and ALERT_TO_ADDRESS are required when alerts are enabled")
	}

	return cfg, nil
}

// loadPolicyDefaults builds the fallback security policy from the
// environment. Out-of-range values are clamped rather than rejected: this
// service gates authentication, so a malformed policy must degrade to safe
// defaults instead of preventing startup.
func loadPolicyDefaults() models.SecurityPolicy {
	defaults := models.DefaultSecurityPolicy()

	policy := models.SecurityPolicy{
		MaxLoginAttempts:       getEnvAsInt("MAX_LOGIN_ATTEMPTS", defaults.MaxLoginAttempts),
		LockoutDurationMinutes: getEnvAsInt("LOCKOUT_DURATION_MINUTES", defaults.LockoutDurationMinutes),
		SessionTimeoutMinutes:  getEnvAsInt("SESSION_TIMEOUT_MINUTES", defaults.SessionTimeoutMinutes),
		RequireStrongPasswords: getEnvAsBool("REQUIRE_STRONG_PASSWORDS", defaults.RequireStrongPasswords),
		MinPasswordLength:      getEnvAsInt("MIN_PASSWORD_LENGTH", defaults.MinPasswordLength),
		RequireUppercase:       getEnvAsBool("REQUIRE_UPPERCASE", defaults.RequireUppercase),
		RequireLowercase:       getEnvAsBool("REQUIRE_LOWERCASE", defaults.RequireLowercase),
		RequireNumbers:         getEnvAsBool("REQUIRE_NUMBERS", defaults.RequireNumbers),
		RequireSpecialChars:    getEnvAsBool("REQUIRE_SPECIAL_CHARS", defaults.RequireSpecialChars),
	}
	policy.Normalize()
	return policy
}

// validateJWTSecret enforces minimum security standards for the shared secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func parseTrustedProxies() []string {
	proxiesStr := getEnv("TRUSTED_PROXIES", "")
	if proxiesStr == "" {
		return nil
	}
	proxies := strings.Split(proxiesStr, ",")
	for i, proxy := range proxies {
		proxies[i] = strings.TrimSpace(proxy)
	}
	return proxies
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
