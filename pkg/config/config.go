package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MaxWorkerCap is the hard ceiling on pipeline concurrency. The scheduler
// enforces it even when PIPELINE_WORKERS asks for more.
const MaxWorkerCap = 32

// Config holds all configuration for the application
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (optional, distributed rate limiting)
	Redis RedisConfig

	// External metric provider
	Provider ProviderConfig

	// Scoring pipeline
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds the external metric provider configuration
type ProviderConfig struct {
	BaseURL string
	APIKey  string

	// Rate limit: RateLimit requests per RateWindow
	RateLimit  int
	RateWindow time.Duration

	// Per-call timeout; exceeding it counts as a transient failure
	FetchTimeout time.Duration
}

// PipelineConfig holds the scoring pipeline configuration
type PipelineConfig struct {
	Workers        int
	BatchSize      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Weights for the six composite categories; must sum to 1.0
	Weights CategoryWeights

	// Minimum number of non-null categories required for a composite
	MinCategories int

	// Winsorization percentile bounds (fractions, e.g. 0.01 / 0.99)
	WinsorizeLower float64
	WinsorizeUpper float64

	// Z-score clamp magnitude (scores capped at +/- this value)
	ZScoreClamp float64

	// When false (default), missing metrics stay missing - no estimate
	// substitution. See DESIGN.md for the policy history.
	AllowFallbackEstimates bool
}

// CategoryWeights defines base weights for the composite score
type CategoryWeights struct {
	Momentum    float64
	Value       float64
	Quality     float64
	Growth      float64
	Stability   float64
	Positioning float64
}

// Sum returns the total of all category weights
func (w CategoryWeights) Sum() float64 {
	return w.Momentum + w.Value + w.Quality + w.Growth + w.Stability + w.Positioning
}

// DefaultWeights returns the default composite weight configuration
func DefaultWeights() CategoryWeights {
	return CategoryWeights{
		Momentum:    0.20,
		Value:       0.20,
		Quality:     0.20,
		Growth:      0.15,
		Stability:   0.15,
		Positioning: 0.10,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			BaseURL:      getEnv("PROVIDER_BASE_URL", ""),
			APIKey:       getEnv("PROVIDER_API_KEY", ""),
			RateLimit:    getEnvAsInt("PROVIDER_RATE_LIMIT", 5),
			RateWindow:   getEnvAsDuration("PROVIDER_RATE_WINDOW", "1s"),
			FetchTimeout: getEnvAsDuration("PROVIDER_FETCH_TIMEOUT", "10s"),
		},

		Pipeline: PipelineConfig{
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 8),
			BatchSize:      getEnvAsInt("PIPELINE_BATCH_SIZE", 25),
			MaxRetries:     getEnvAsInt("PIPELINE_MAX_RETRIES", 3),
			RetryBaseDelay: getEnvAsDuration("PIPELINE_RETRY_BASE_DELAY", "500ms"),
			RetryMaxDelay:  getEnvAsDuration("PIPELINE_RETRY_MAX_DELAY", "30s"),
			Weights: CategoryWeights{
				Momentum:    getEnvAsFloat("WEIGHT_MOMENTUM", 0.20),
				Value:       getEnvAsFloat("WEIGHT_VALUE", 0.20),
				Quality:     getEnvAsFloat("WEIGHT_QUALITY", 0.20),
				Growth:      getEnvAsFloat("WEIGHT_GROWTH", 0.15),
				Stability:   getEnvAsFloat("WEIGHT_STABILITY", 0.15),
				Positioning: getEnvAsFloat("WEIGHT_POSITIONING", 0.10),
			},
			MinCategories:          getEnvAsInt("MIN_CATEGORIES", 4),
			WinsorizeLower:         getEnvAsFloat("WINSORIZE_LOWER", 0.01),
			WinsorizeUpper:         getEnvAsFloat("WINSORIZE_UPPER", 0.99),
			ZScoreClamp:            getEnvAsFloat("ZSCORE_CLAMP", 3.0),
			AllowFallbackEstimates: getEnvAsBool("ALLOW_FALLBACK_ESTIMATES", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are consistent
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	p := c.Pipeline

	if p.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be >= 1")
	}
	if p.BatchSize < 1 {
		return fmt.Errorf("PIPELINE_BATCH_SIZE must be >= 1")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must be >= 0")
	}
	if p.RetryBaseDelay <= 0 || p.RetryMaxDelay < p.RetryBaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < base <= max")
	}

	if sum := p.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("category weights must sum to 1.0, got %.6f", sum)
	}
	if p.MinCategories < 1 || p.MinCategories > 6 {
		return fmt.Errorf("MIN_CATEGORIES must be between 1 and 6")
	}
	if p.WinsorizeLower < 0 || p.WinsorizeUpper > 1 || p.WinsorizeLower >= p.WinsorizeUpper {
		return fmt.Errorf("winsorize bounds must satisfy 0 <= lower < upper <= 1")
	}
	if p.ZScoreClamp <= 0 {
		return fmt.Errorf("ZSCORE_CLAMP must be > 0")
	}

	if c.Provider.RateLimit < 1 {
		return fmt.Errorf("PROVIDER_RATE_LIMIT must be >= 1")
	}
	if c.Provider.RateWindow <= 0 {
		return fmt.Errorf("PROVIDER_RATE_WINDOW must be > 0")
	}
	if c.Provider.FetchTimeout <= 0 {
		return fmt.Errorf("PROVIDER_FETCH_TIMEOUT must be > 0")
	}

	return nil
}

// EffectiveWorkers returns the configured worker count bounded by MaxWorkerCap
func (p PipelineConfig) EffectiveWorkers() int {
	if p.Workers > MaxWorkerCap {
		return MaxWorkerCap
	}
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
