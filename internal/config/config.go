package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultNDBCBaseURL     = "https://www.ndbc.noaa.gov"
	DefaultForecastHorizon = 6
	DefaultMaxHorizon      = 72
)

type Config struct {
	Environment    string
	LogLevel       zerolog.Level
	HTTPTimeout    time.Duration
	MaxRetries     int
	NDBCBaseURL    string
	DefaultHorizon int
	MaxHorizon     int
	Stations       []string
	SnapshotBucket string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.MaxRetries = retries
		}
	}
}

func WithNDBCBaseURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.NDBCBaseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithDefaultHorizon sets the horizon used when a request names none.
// New caps it at MaxHorizon.
func WithDefaultHorizon(hours int) Option {
	return func(c *Config) {
		if hours > 0 {
			c.DefaultHorizon = hours
		}
	}
}

func WithMaxHorizon(hours int) Option {
	return func(c *Config) {
		if hours > 0 {
			c.MaxHorizon = hours
		}
	}
}

// WithStations sets the stations the ingest job snapshots and warms. IDs are
// upper-cased to match the forecast API's lookups.
func WithStations(stations ...string) Option {
	return func(c *Config) {
		c.Stations = nil
		for _, s := range stations {
			if s = strings.TrimSpace(s); s != "" {
				c.Stations = append(c.Stations, strings.ToUpper(s))
			}
		}
	}
}

// WithSnapshotBucket sets the S3 bucket for raw snapshots. Empty disables
// snapshot storage and the fallback to it.
func WithSnapshotBucket(bucket string) Option {
	return func(c *Config) {
		c.SnapshotBucket = bucket
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		HTTPTimeout:    10 * time.Second,
		MaxRetries:     3,
		NDBCBaseURL:    DefaultNDBCBaseURL,
		DefaultHorizon: DefaultForecastHorizon,
		MaxHorizon:     DefaultMaxHorizon,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.DefaultHorizon > cfg.MaxHorizon {
		cfg.DefaultHorizon = cfg.MaxHorizon
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables, after reading
// a .env file from the working directory when one exists.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithMaxRetries(getEnvInt("HTTP_MAX_RETRIES", 3)),
		WithNDBCBaseURL(getEnvOrDefault("NDBC_BASE_URL", DefaultNDBCBaseURL)),
		WithMaxHorizon(getEnvInt("FORECAST_MAX_HORIZON", DefaultMaxHorizon)),
		WithDefaultHorizon(getEnvInt("FORECAST_DEFAULT_HORIZON", DefaultForecastHorizon)),
		WithStations(strings.Split(os.Getenv("STATIONS"), ",")...),
		WithSnapshotBucket(os.Getenv("SNAPSHOT_BUCKET")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
