package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const insecureDefaultSecret = "change-me-in-production"

// Config holds the application configuration
type Config struct {
	Env    string
	Server struct {
		Host               string
		Port               int
		CORSAllowedOrigins []string
	}
	DatabaseURL string
	Auth        struct {
		JWTSecret string
		TokenTTL  time.Duration
		HashAlgo  string
	}
	Admin struct {
		Username     string
		Password     string
		PasswordHash string
	}
	Redis struct {
		URL      string
		CacheTTL time.Duration
	}
	PublicBaseURL string
	MaxPageSize   int
}

// IsProduction reports whether APP_ENV selects production behaviour
func (c *Config) IsProduction() bool {
	return strings.HasPrefix(strings.ToLower(c.Env), "prod")
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	cfg.Env = getEnv("APP_ENV", "development")
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	if cfg.Server.Port, err = getInt("SERVER_PORT", getEnv("PORT", "3001")); err != nil {
		return nil, err
	}
	cfg.Server.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = databaseURLFromParts()
	}

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", insecureDefaultSecret)
	if cfg.Auth.TokenTTL, err = getDuration("JWT_TTL", "1h"); err != nil {
		return nil, err
	}
	cfg.Auth.HashAlgo = getEnv("PASSWORD_HASH_ALGO", "bcrypt")

	cfg.Admin.Username = getEnv("ADMIN_USERNAME", "admin")
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", "admin123")
	cfg.Admin.PasswordHash = getEnv("ADMIN_PASSWORD_HASH", "")

	cfg.Redis.URL = getEnv("REDIS_URL", "")
	if cfg.Redis.CacheTTL, err = getDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}

	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:5173")
	if cfg.MaxPageSize, err = getInt("MAX_PAGE_SIZE", "100"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Auth.JWTSecret == insecureDefaultSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.MaxPageSize < 1 {
		return errors.New("MAX_PAGE_SIZE must be at least 1")
	}
	if _, err := url.ParseRequestURI(c.PublicBaseURL); err != nil {
		return fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
	}
	return nil
}

func databaseURLFromParts() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USER", "vaccination"), getEnv("DB_PASSWORD", "vaccination")),
		Host:   fmt.Sprintf("%s:%s", getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432")),
		Path:   getEnv("DB_NAME", "vaccination_db"),
	}
	u.RawQuery = "sslmode=" + getEnv("DB_SSLMODE", "disable")
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
