// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/navreturns/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultAllowedOrigins are the frontends allowed to call the API
var DefaultAllowedOrigins = []string{
	"https://smartequityinvest.in",
	"https://www.smartequityinvest.in",
	"http://localhost:5000",
	"http://127.0.0.1:5000",
}

// Config holds application configuration
type Config struct {
	// Directory for the cache database and batch checkpoint (always absolute)
	DataDir        string   `validate:"required"`
	Port           int      `validate:"min=1,max=65535"`
	LogLevel       string   `validate:"oneof=debug info warn warning error"`
	DevMode        bool
	AllowedOrigins []string `validate:"dive,required"`
	SchemesCSV     string
	MFAPI          MFAPIConfig
	Returns        ReturnsConfig
	Refresh        RefreshConfig
}

// MFAPIConfig holds NAV provider settings
type MFAPIConfig struct {
	BaseURL       string        `validate:"required,url"`
	Timeout       time.Duration `validate:"gt=0"`
	RatePerSecond float64       `validate:"gt=0"`
}

// ReturnsConfig holds engine and cache settings
type ReturnsConfig struct {
	DateLayout      string        `validate:"required"`
	SIPAmount       float64       `validate:"gt=0"`
	SIPDay          int           `validate:"min=1,max=31"`
	LongHorizonMode string        `validate:"oneof=xirr cagr"`
	MinObservations int           `validate:"min=1"`
	CacheTTL        time.Duration `validate:"gt=0"`
}

// RefreshConfig holds batch refresh settings
type RefreshConfig struct {
	// Cron spec with seconds field; empty disables the nightly run
	Schedule       string
	ChunkSize      int           `validate:"min=1"`
	Cooldown       time.Duration `validate:"min=0"`
	MaxAttempts    int           `validate:"min=1"`
	InitialBackoff time.Duration `validate:"gt=0"`
}

// DatabasePath returns the path of the cache database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "navreturns.db")
}

// CheckpointPath returns the path of the batch checkpoint file
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, "refresh.checkpoint")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("NAVRETURNS_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("PORT", 5000),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),
		SchemesCSV:     getEnv("SCHEMES_CSV", "schemeswithcodes.csv"),
		MFAPI: MFAPIConfig{
			BaseURL:       getEnv("MFAPI_BASE_URL", "https://api.mfapi.in/mf/"),
			Timeout:       getEnvAsDuration("MFAPI_TIMEOUT", 10*time.Second),
			RatePerSecond: getEnvAsFloat("MFAPI_RATE_PER_SEC", 2),
		},
		Returns: ReturnsConfig{
			DateLayout:      getEnv("NAV_DATE_LAYOUT", "02-01-2006"),
			SIPAmount:       getEnvAsFloat("SIP_AMOUNT", 10000),
			SIPDay:          getEnvAsInt("SIP_DAY", 1),
			LongHorizonMode: strings.ToLower(getEnv("RETURNS_LONG_HORIZON_MODE", "xirr")),
			MinObservations: getEnvAsInt("CAGR_MIN_OBSERVATIONS", 200),
			CacheTTL:        getEnvAsDuration("RETURNS_CACHE_TTL", 24*time.Hour),
		},
		Refresh: RefreshConfig{
			Schedule:       os.Getenv("REFRESH_SCHEDULE"),
			ChunkSize:      getEnvAsInt("REFRESH_CHUNK_SIZE", 50),
			Cooldown:       getEnvAsDuration("REFRESH_COOLDOWN", 30*time.Second),
			MaxAttempts:    getEnvAsInt("REFRESH_MAX_ATTEMPTS", 3),
			InitialBackoff: getEnvAsDuration("REFRESH_INITIAL_BACKOFF", 2*time.Second),
		},
	}
	if _, set := os.LookupEnv("REFRESH_SCHEDULE"); !set {
		cfg.Refresh.Schedule = "0 30 2 * * *"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field ranges
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	list := utils.SplitList(value)
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
