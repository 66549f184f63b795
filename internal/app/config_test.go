package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "storefront_session", cfg.SessionCookie)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, int32(10), cfg.PGMaxConns)
	assert.True(t, cfg.DBMigrate)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.DBMigrate)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"SESSION_SECRET": ""}},
		{name: "zero ttl", env: map[string]string{"SESSION_SECRET": "s", "SESSION_TTL": "0s"}},
		{name: "cost too low", env: map[string]string{"SESSION_SECRET": "s", "BCRYPT_COST": "3"}},
		{name: "cost too high", env: map[string]string{"SESSION_SECRET": "s", "BCRYPT_COST": "32"}},
		{name: "malformed ttl", env: map[string]string{"SESSION_SECRET": "s", "SESSION_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestIsProductionNilSafe(t *testing.T) {
	var cfg *Config
	assert.False(t, cfg.IsProduction())
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("email", "jane@example.com"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])

	buf.Reset()
	newLogger(&Config{LogFormat: "pretty"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel(nil))
	assert.Equal(t, slog.LevelDebug, parseLevel(&Config{LogLevel: "DEBUG"}))
	assert.Equal(t, slog.LevelError, parseLevel(&Config{LogLevel: "error"}))
	assert.Equal(t, slog.LevelInfo, parseLevel(&Config{LogLevel: "verbose"}))
}
