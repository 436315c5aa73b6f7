package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
)

const (
	RevocationMemory = "memory"
	RevocationRedis  = "redis"
)

type Config struct {
	JWTSecret  string        // Required: HMAC secret for signing tokens
	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 7d)
	Issuer     string        // Optional: issuer claim for tokens (default: school-auth)
	Leeway     time.Duration // Optional: clock skew allowed on exp/nbf (default: 0)

	DatabaseFile      string        // Optional: path to SQLite database file (default: ./auth.db)
	RepositoryTimeout time.Duration // Optional: bound on each repository lookup (default: 3s)

	RevocationBackend    string                 // Optional: memory or redis (default: memory)
	Redis                revocation.RedisConfig // Used when RevocationBackend is redis
	HousekeepingInterval time.Duration          // Revocation sweep interval (default: 1h)

	SeedAdminEmail    string // Optional: admin created on an empty database
	SeedAdminPassword string

	OIDC service.OIDCConfig // Optional: external identity provider

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	TrustedProxies      string        // Optional: comma-separated IPs/CIDRs whose X-Forwarded-For is believed
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	redisCfg := revocation.DefaultRedisConfig()
	redisCfg.Addr = getEnvOrDefault("REDIS_ADDR", redisCfg.Addr)
	redisCfg.Password = os.Getenv("REDIS_PASSWORD")
	redisCfg.DB = getEnvIntOrDefault("REDIS_DB", 0)
	redisCfg.KeyPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", redisCfg.KeyPrefix)

	cfg := Config{
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AccessTTL:  time.Duration(getEnvIntOrDefault("JWT_ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL: time.Duration(getEnvIntOrDefault("JWT_REFRESH_TTL_DAYS", 7)) * 24 * time.Hour,
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "school-auth"),
		Leeway:     time.Duration(getEnvIntOrDefault("JWT_LEEWAY_SECONDS", 0)) * time.Second,

		DatabaseFile:      getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RepositoryTimeout: getEnvDurationOrDefault("REPOSITORY_TIMEOUT", service.DefaultRepositoryTimeout),

		RevocationBackend:    getEnvOrDefault("REVOCATION_BACKEND", RevocationMemory),
		Redis:                redisCfg,
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		OIDC: service.OIDCConfig{
			IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		TrustedProxies:      os.Getenv("TRUSTED_PROXIES"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Well-known development credentials, never outside dev.
	if cfg.Env == "dev" {
		if cfg.SeedAdminEmail == "" {
			cfg.SeedAdminEmail = "admin@school.com"
		}
		if cfg.SeedAdminPassword == "" {
			cfg.SeedAdminPassword = "admin123"
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// A bare integer is minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
