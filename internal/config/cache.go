package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// LRU Cache settings
	ForecastLRUSize       int
	ForecastLRUTTLMinutes int

	// DynamoDB Cache settings
	ForecastDynamoTTLMinutes int
	DynamoTableName          string

	// Batch processing settings
	BatchSize       int
	MaxBatchRetries int

	// General settings
	EnableLRUCache    bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultForecastLRUSize       = 500
	defaultForecastLRUTTLMinutes = 10
	defaultDynamoTTLMinutes      = 60
	defaultDynamoTableName       = "surf-forecast-cache"
	defaultBatchSize             = 25
	defaultMaxBatchRetries       = 3
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		ForecastLRUSize:          getEnvInt("CACHE_FORECAST_LRU_SIZE", defaultForecastLRUSize),
		ForecastLRUTTLMinutes:    getEnvInt("CACHE_FORECAST_LRU_TTL_MINUTES", defaultForecastLRUTTLMinutes),
		ForecastDynamoTTLMinutes: getEnvInt("CACHE_DYNAMO_TTL_MINUTES", defaultDynamoTTLMinutes),
		DynamoTableName:          getEnvOrDefault("CACHE_DYNAMO_TABLE", defaultDynamoTableName),
		BatchSize:                getEnvInt("CACHE_BATCH_SIZE", defaultBatchSize),
		MaxBatchRetries:          getEnvInt("CACHE_MAX_BATCH_RETRIES", defaultMaxBatchRetries),
		EnableLRUCache:           getEnvBool("CACHE_ENABLE_LRU", true),
		EnableDynamoCache:        getEnvBool("CACHE_ENABLE_DYNAMO", true),
	}

	// DynamoDB caps BatchWriteItem at 25 requests
	if config.BatchSize < 1 || config.BatchSize > defaultBatchSize {
		log.Warn().Int("BatchSize", config.BatchSize).Msg("Batch size out of range, using default")
		config.BatchSize = defaultBatchSize
	}
	if config.MaxBatchRetries < 1 {
		config.MaxBatchRetries = 1
	}

	log.Debug().
		Int("ForecastLRUSize", config.ForecastLRUSize).
		Int("ForecastLRUTTLMinutes", config.ForecastLRUTTLMinutes).
		Int("ForecastDynamoTTLMinutes", config.ForecastDynamoTTLMinutes).
		Str("DynamoTableName", config.DynamoTableName).
		Int("BatchSize", config.BatchSize).
		Int("MaxBatchRetries", config.MaxBatchRetries).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetLRUTTL() time.Duration {
	return time.Duration(c.ForecastLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoTTL() time.Duration {
	return time.Duration(c.ForecastDynamoTTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
