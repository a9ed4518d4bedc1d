package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config holds all application configuration
type Config struct {
	Layout       LayoutConfig
	Batch        BatchConfig
	Database     DatabaseConfig
	Output       OutputConfig
	PatternsFile string
	LogLevel     string `validate:"oneof=debug info warn error"`
}

// LayoutConfig tunes glyph merging and row bucketing
type LayoutConfig struct {
	BucketSize    float64 `validate:"gt=0"`
	LineTolerance float64 `validate:"gt=0"`
	CharMargin    float64 `validate:"gt=0"`
	WordMargin    float64 `validate:"gte=0"`
}

type BatchConfig struct {
	MaxConcurrent int           `validate:"min=1,max=32"`
	Timeout       time.Duration `validate:"required"`
	MaxRetries    int           `validate:"min=0,max=3"`
	ParsingMode   ParsingMode   `validate:"oneof=strict best-effort"`
}

type DatabaseConfig struct {
	Enabled   bool
	Host      string `validate:"required_if=Enabled true"`
	Port      int    `validate:"min=0,max=65535"`
	User      string `validate:"required_if=Enabled true"`
	Password  string
	Database  string  `validate:"required_if=Enabled true"`
	SSLMode   string  `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Tolerance float64 `validate:"gte=0"`
}

type OutputConfig struct {
	Dir         string
	Excel       bool
	KeepCSV     bool
	MetricsFile string
}

// NewDefaultConfig returns the configuration used when nothing is set
func NewDefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			BucketSize:    10,
			LineTolerance: 2.0,
			CharMargin:    2.0,
			WordMargin:    0.1,
		},
		Batch: BatchConfig{
			MaxConcurrent: 4,
			Timeout:       30 * time.Second,
			MaxRetries:    1,
			ParsingMode:   BestEffort,
		},
		Database: DatabaseConfig{
			Port:      5432,
			SSLMode:   "prefer",
			Tolerance: 1,
		},
		Output: OutputConfig{
			Excel:   true,
			KeepCSV: true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from environment variables, after seeding them
// from envFiles (".env" when none is given). Missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	d := NewDefaultConfig()
	cfg := &Config{
		Layout: LayoutConfig{
			BucketSize:    getEnvAsFloat("FACTURAS_BUCKET_SIZE", d.Layout.BucketSize),
			LineTolerance: getEnvAsFloat("FACTURAS_LINE_TOLERANCE", d.Layout.LineTolerance),
			CharMargin:    getEnvAsFloat("FACTURAS_CHAR_MARGIN", d.Layout.CharMargin),
			WordMargin:    getEnvAsFloat("FACTURAS_WORD_MARGIN", d.Layout.WordMargin),
		},
		Batch: BatchConfig{
			MaxConcurrent: getEnvAsInt("FACTURAS_MAX_CONCURRENT", d.Batch.MaxConcurrent),
			Timeout:       getEnvAsDuration("FACTURAS_TIMEOUT", d.Batch.Timeout),
			MaxRetries:    getEnvAsInt("FACTURAS_MAX_RETRIES", d.Batch.MaxRetries),
			ParsingMode:   ParsingMode(getEnv("FACTURAS_PARSING_MODE", string(d.Batch.ParsingMode))),
		},
		Database: DatabaseConfig{
			Enabled:   getEnvAsBool("FACTURAS_DB_ENABLED", false),
			Host:      getEnv("POSTGRES_HOST", ""),
			Port:      getEnvAsInt("POSTGRES_PORT", d.Database.Port),
			User:      getEnv("POSTGRES_USER", ""),
			Password:  getEnv("POSTGRES_PASSWORD", ""),
			Database:  getEnv("POSTGRES_DB", ""),
			SSLMode:   getEnv("POSTGRES_SSLMODE", d.Database.SSLMode),
			Tolerance: getEnvAsFloat("FACTURAS_TOLERANCE", d.Database.Tolerance),
		},
		Output: OutputConfig{
			Dir:         getEnv("FACTURAS_OUTPUT_DIR", ""),
			Excel:       getEnvAsBool("FACTURAS_EXCEL", d.Output.Excel),
			KeepCSV:     getEnvAsBool("FACTURAS_KEEP_CSV", d.Output.KeepCSV),
			MetricsFile: getEnv("FACTURAS_METRICS_FILE", ""),
		},
		PatternsFile: getEnv("FACTURAS_PATTERNS_FILE", ""),
		LogLevel:     strings.ToLower(getEnv("FACTURAS_LOG_LEVEL", d.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel
func (cfg *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
