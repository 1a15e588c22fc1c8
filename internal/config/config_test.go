package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "a-secret-that-is-long-enough"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, ":4000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "data/linkup.db", cfg.Database.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "disk", cfg.Upload.Backend)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/var/lib/linkup/prod.db")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("UPLOAD_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "linkup-images")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/var/lib/linkup/prod.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "s3", cfg.Upload.Backend)
	assert.Equal(t, "linkup-images", cfg.Upload.S3.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Upload.S3.Endpoint)
	assert.True(t, cfg.Upload.S3.UsePathStyle)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_BcryptCostIsClamped(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	for in, want := range map[string]int{"4": 10, "11": 11, "40": 31, "junk": 12} {
		t.Setenv("BCRYPT_COST", in)
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, want, cfg.Auth.BcryptCost, "BCRYPT_COST=%s", in)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := map[string]map[string]string{
		"short secret":         {"JWT_SECRET": "short"},
		"bad port":             {"PORT": "http"},
		"port out of range":    {"PORT": "70000"},
		"unknown backend":      {"UPLOAD_BACKEND": "ftp"},
		"s3 without bucket":    {"UPLOAD_BACKEND": "s3"},
		"zero upload cap":      {"UPLOAD_MAX_BYTES": "0"},
		"unknown log format":   {"LOG_FORMAT": "xml"},
		"non-positive jwt ttl": {"JWT_TTL": "-1h"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", secret)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: slog.LevelInfo, Format: "json"}.NewLogger(&buf).Info("hello", slog.String("k", "v"))
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "json output expected: %s", buf.String())

	buf.Reset()
	LogConfig{Level: slog.LevelWarn, Format: "text"}.NewLogger(&buf).Info("quiet")
	assert.Empty(t, buf.String(), "info must be filtered at warn level")
}
