// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// BackendConfig holds the connection settings for the upstream search backend.
type BackendConfig struct {
	URL   string // base URL, e.g. http://localhost:5080
	Org   string // organization segment of the search endpoints
	Token string // Authorization header value, passed through verbatim
}

// Validate checks that the backend configuration is usable.
func (b *BackendConfig) Validate() error {
	if b.URL == "" {
		return fmt.Errorf("BACKEND_URL must be set")
	}
	if b.Org == "" {
		return fmt.Errorf("BACKEND_ORG must be set")
	}
	return nil
}

// Config holds the configuration for the HTTP API and local history store.
type Config struct {
	Backend BackendConfig

	ListenAddr    string // HTTP listen address (default ":8080")
	RowsPerPage   int    // logical page size for search results (default 250)
	HistoryDBPath string // path to the SQLite history file
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	// Saved searches and history retention.
	SavedSearchesFile string        // YAML file of scheduled searches (optional)
	HistoryRetention  time.Duration // purge history entries older than this (default 30d)

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			URL:   os.Getenv("BACKEND_URL"),
			Org:   os.Getenv("BACKEND_ORG"),
			Token: os.Getenv("BACKEND_TOKEN"),
		},
		ListenAddr:        os.Getenv("LISTEN_ADDR"),
		HistoryDBPath:     os.Getenv("HISTORY_DB_PATH"),
		SavedSearchesFile: os.Getenv("SAVED_SEARCHES_FILE"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		Env:               os.Getenv("ENV"),
	}

	if v := os.Getenv("ROWS_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("ROWS_PER_PAGE must be a positive integer, got %q", v)
		}
		cfg.RowsPerPage = n
	}
	if v := os.Getenv("HISTORY_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("HISTORY_RETENTION must be a positive duration, got %q", v)
		}
		cfg.HistoryRetention = d
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	// Defaults
	if cfg.Backend.Org == "" {
		cfg.Backend.Org = "default"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.RowsPerPage == 0 {
		cfg.RowsPerPage = 250
	}
	if cfg.HistoryDBPath == "" {
		cfg.HistoryDBPath = "logsearch_history.sqlite"
	}
	if cfg.HistoryRetention == 0 {
		cfg.HistoryRetention = 30 * 24 * time.Hour
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.Backend.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend.Token == "" {
		cfg.Warnings = append(cfg.Warnings, "BACKEND_TOKEN not set; requests to the search backend will be unauthenticated")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.Backend.Token == "" {
			return nil, fmt.Errorf("BACKEND_TOKEN must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Real env vars take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
