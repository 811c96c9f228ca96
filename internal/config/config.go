package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Redis    RedisConfig
	Deezer   DeezerConfig
	Auth     AuthProviderConfig
	Search   SearchConfig

	// SeedDemo creates a demo session with a few requests at startup.
	SeedDemo bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds the secret used to verify access tokens.
type SecurityConfig struct {
	JWTSecret string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// RedisConfig is optional; an empty URL keeps recent searches in memory.
type RedisConfig struct {
	URL string
}

// DeezerConfig configures the music search client.
type DeezerConfig struct {
	BaseURL string
	Timeout time.Duration
}

// AuthProviderConfig points at the hosted phone login endpoints.
type AuthProviderConfig struct {
	URL     string
	AnonKey string
}

// SearchConfig holds per-client search limits.
type SearchConfig struct {
	RatePerMinute int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	cfg.Security.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.loadIntegrations(); err != nil {
		return nil, fmt.Errorf("load integrations config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DatabaseURLFromEnv resolves only the database URL. The migrate tool uses it
// so it does not need the server's secrets.
func DatabaseURLFromEnv() (string, error) {
	cfg := &Config{}
	if err := cfg.loadDatabase(); err != nil {
		return "", err
	}
	if cfg.Database.URL == "" {
		return "", errors.New("DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	return cfg.Database.URL, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.Host != "" && c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		c.CORS.AllowedOrigins = []string{
			"http://localhost:8081",
			"http://localhost:19006",
		}
		return
	}

	for _, origin := range strings.Split(originsEnv, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			c.CORS.AllowedOrigins = append(c.CORS.AllowedOrigins, trimmed)
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
}

func (c *Config) loadIntegrations() error {
	c.Redis.URL = os.Getenv("REDIS_URL")

	c.Deezer.BaseURL = strings.TrimRight(getEnvOrDefault("DEEZER_BASE_URL", "https://api.deezer.com"), "/")
	timeout, err := time.ParseDuration(getEnvOrDefault("DEEZER_TIMEOUT", "5s"))
	if err != nil {
		return fmt.Errorf("invalid DEEZER_TIMEOUT: %w", err)
	}
	c.Deezer.Timeout = timeout

	c.Auth.URL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	c.Auth.AnonKey = os.Getenv("SUPABASE_ANON_KEY")

	rate, err := strconv.Atoi(getEnvOrDefault("SEARCH_RATE_PER_MINUTE", "30"))
	if err != nil {
		return fmt.Errorf("invalid SEARCH_RATE_PER_MINUTE: %w", err)
	}
	c.Search.RatePerMinute = rate

	if raw := os.Getenv("SEED_DEMO"); raw != "" {
		seed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid SEED_DEMO: %w", err)
		}
		c.SeedDemo = seed
	}
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.Security.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if c.Deezer.Timeout <= 0 {
		problems = append(problems, "DEEZER_TIMEOUT must be positive")
	}

	if c.Search.RatePerMinute < 1 {
		problems = append(problems, "SEARCH_RATE_PER_MINUTE must be at least 1")
	}

	if (c.Auth.URL == "") != (c.Auth.AnonKey == "") {
		problems = append(problems, "SUPABASE_URL and SUPABASE_ANON_KEY must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

// OTPEnabled reports whether phone login can be proxied to the auth provider.
func (c *Config) OTPEnabled() bool {
	return c.Auth.URL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
