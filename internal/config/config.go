package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Session store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// SigningKey is one entry of the session signing keyring.
type SigningKey struct {
	ID     string
	Secret string
}

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	AppEnv       string // "development" or "production"
	LogLevel     string

	// SessionKeys signs session cookies. The first key is the active one;
	// the rest are only accepted when verifying, which allows rotation.
	SessionKeys       []SigningKey
	SessionTTL        time.Duration
	SessionCookieName string
	SessionBackend    string
	RedisURL          string
	SessionSweepSpec  string // cron spec for purging expired sessions

	AllowedOrigins []string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	keys, err := ParseSigningKeys(getEnv("SESSION_KEYS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:        port,
		DatabasePath:      getEnv("DATABASE_PATH", "./blog.db"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SessionKeys:       keys,
		SessionTTL:        ttl,
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "blog_session"),
		SessionBackend:    getEnv("SESSION_BACKEND", BackendSQLite),
		RedisURL:          getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionSweepSpec:  getEnv("SESSION_SWEEP_SPEC", "@every 15m"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.SessionKeys) == 0 {
		key, err := randomKey()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("SESSION_KEYS not set, using an ephemeral signing key; sessions will not survive a restart")
		cfg.SessionKeys = []SigningKey{key}
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.IsProduction() && len(c.SessionKeys) == 0 {
		return fmt.Errorf("SESSION_KEYS is required in production")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	switch c.SessionBackend {
	case BackendSQLite:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

// ParseSigningKeys parses "kid:secret,kid:secret". Order is preserved.
func ParseSigningKeys(raw string) ([]SigningKey, error) {
	var keys []SigningKey
	seen := make(map[string]bool)
	for _, part := range splitList(raw) {
		id, secret, ok := strings.Cut(part, ":")
		if !ok || id == "" || secret == "" {
			return nil, fmt.Errorf("invalid SESSION_KEYS entry %q, want kid:secret", part)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate SESSION_KEYS id %q", id)
		}
		seen[id] = true
		keys = append(keys, SigningKey{ID: id, Secret: secret})
	}
	return keys, nil
}

func randomKey() (SigningKey, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return SigningKey{}, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return SigningKey{ID: "ephemeral", Secret: hex.EncodeToString(buf)}, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
