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

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		shouldErr bool
	}{
		{name: "default config", modify: func(*Config) {}},
		{name: "zero bucket size", modify: func(c *Config) { c.Layout.BucketSize = 0 }, shouldErr: true},
		{name: "negative word margin", modify: func(c *Config) { c.Layout.WordMargin = -1 }, shouldErr: true},
		{name: "no concurrency", modify: func(c *Config) { c.Batch.MaxConcurrent = 0 }, shouldErr: true},
		{name: "missing timeout", modify: func(c *Config) { c.Batch.Timeout = 0 }, shouldErr: true},
		{name: "too many retries", modify: func(c *Config) { c.Batch.MaxRetries = 4 }, shouldErr: true},
		{name: "strict mode", modify: func(c *Config) { c.Batch.ParsingMode = Strict }},
		{name: "invalid parsing mode", modify: func(c *Config) { c.Batch.ParsingMode = "lenient" }, shouldErr: true},
		{name: "invalid log level", modify: func(c *Config) { c.LogLevel = "verbose" }, shouldErr: true},
		{name: "database without host", modify: func(c *Config) { c.Database.Enabled = true }, shouldErr: true},
		{
			name: "database configured",
			modify: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Host = "db.internal"
				c.Database.User = "reader"
				c.Database.Database = "datalake"
			},
		},
		{name: "invalid ssl mode", modify: func(c *Config) { c.Database.SSLMode = "always" }, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, NewDefaultConfig().Layout, cfg.Layout)
		assert.Equal(t, BestEffort, cfg.Batch.ParsingMode)
		assert.False(t, cfg.Database.Enabled)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("FACTURAS_BUCKET_SIZE", "12.5")
		t.Setenv("FACTURAS_MAX_CONCURRENT", "8")
		t.Setenv("FACTURAS_TIMEOUT", "1m")
		t.Setenv("FACTURAS_PARSING_MODE", "strict")
		t.Setenv("FACTURAS_EXCEL", "false")
		t.Setenv("FACTURAS_LOG_LEVEL", "DEBUG")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, 12.5, cfg.Layout.BucketSize)
		assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
		assert.Equal(t, time.Minute, cfg.Batch.Timeout)
		assert.Equal(t, Strict, cfg.Batch.ParsingMode)
		assert.False(t, cfg.Output.Excel)
		assert.Equal(t, slog.LevelDebug, cfg.Level())
	})

	t.Run("env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("FACTURAS_OUTPUT_DIR=/tmp/facturas\n"), 0o644))
		t.Cleanup(func() { os.Unsetenv("FACTURAS_OUTPUT_DIR") })

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/facturas", cfg.Output.Dir)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("FACTURAS_PARSING_MODE", "lenient")

		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "reader", Password: "secret", Database: "datalake", SSLMode: "require"}
	assert.Equal(t, "host=db port=5432 user=reader password=secret dbname=datalake sslmode=require", db.DSN())
}
