package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BACKEND_URL", "BACKEND_ORG", "BACKEND_TOKEN",
		"LISTEN_ADDR", "ROWS_PER_PAGE", "HISTORY_DB_PATH",
		"HISTORY_RETENTION", "SAVED_SEARCHES_FILE",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://localhost:5080")
	t.Setenv("BACKEND_ORG", "acme")
	t.Setenv("BACKEND_TOKEN", "Basic abc123")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("ROWS_PER_PAGE", "100")
	t.Setenv("HISTORY_DB_PATH", "/tmp/hist.sqlite")
	t.Setenv("HISTORY_RETENTION", "168h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5080", cfg.Backend.URL)
	assert.Equal(t, "acme", cfg.Backend.Org)
	assert.Equal(t, "Basic abc123", cfg.Backend.Token)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 100, cfg.RowsPerPage)
	assert.Equal(t, "/tmp/hist.sqlite", cfg.HistoryDBPath)
	assert.Equal(t, 168*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://localhost:5080")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Backend.Org)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 250, cfg.RowsPerPage)
	assert.Equal(t, "logsearch_history.sqlite", cfg.HistoryDBPath)
	assert.Equal(t, 30*24*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, float64(100), cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)

	// No token is a warning in development.
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "BACKEND_TOKEN")
}

func TestLoadFromEnv_MissingBackendURL(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestLoadFromEnv_InvalidRowsPerPage(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://localhost:5080")
	t.Setenv("ROWS_PER_PAGE", "zero")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROWS_PER_PAGE")

	t.Setenv("ROWS_PER_PAGE", "-5")
	_, err = LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_ProductionGuards(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://localhost:5080")
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_TOKEN")

	t.Setenv("BACKEND_TOKEN", "Basic abc123")
	_, err = LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://logs.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.level)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	require.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\nTEST_KEY=\"quoted value\"\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "quoted value", os.Getenv("TEST_KEY"))
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("TEST_PRECEDENCE_KEY"))
}
