package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bbernstein/surfcast/backend-go/internal/config"
	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// LRUCacheEntry wraps the cached data with metadata
type LRUCacheEntry struct {
	Data      models.ForecastRecord
	ExpiresAt time.Time
}

// ForecastCacheService provides a two-layer cache of computed forecasts: an
// in-process LRU in front of DynamoDB. Either layer may be disabled.
type ForecastCacheService struct {
	lru          *lru.Cache[string, *LRUCacheEntry]
	dynamoCache  *DynamoForecastCache
	ttl          time.Duration
	clock        clockwork.Clock
	lruHits      atomic.Uint64
	lruMisses    atomic.Uint64
	dynamoHits   atomic.Uint64
	dynamoMisses atomic.Uint64
}

// NewForecastCacheService creates the cache. dynamoClient may be nil when
// the DynamoDB layer is disabled.
func NewForecastCacheService(dynamoClient DynamoDBClient, cfg *config.CacheConfig, clock clockwork.Clock) (*ForecastCacheService, error) {
	if cfg == nil {
		cfg = config.GetCacheConfig()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &ForecastCacheService{
		ttl:   cfg.GetLRUTTL(),
		clock: clock,
	}

	if cfg.EnableLRUCache {
		lruCache, err := lru.New[string, *LRUCacheEntry](cfg.ForecastLRUSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
		s.lru = lruCache
	}

	if cfg.EnableDynamoCache {
		if dynamoClient == nil {
			return nil, fmt.Errorf("DynamoDB cache enabled without a client")
		}
		s.dynamoCache = NewDynamoForecastCache(dynamoClient, cfg, clock)
	}

	return s, nil
}

// GetForecast tries the LRU first, then DynamoDB, promoting DynamoDB hits
// into the LRU. A miss in both returns nil without error.
func (c *ForecastCacheService) GetForecast(ctx context.Context, cacheKey string) (*models.ForecastRecord, error) {
	if c.lru != nil {
		if entry, ok := c.lru.Get(cacheKey); ok {
			if c.clock.Now().Before(entry.ExpiresAt) {
				c.lruHits.Add(1)
				record := entry.Data
				return &record, nil
			}
			// Entry expired, remove it
			c.lru.Remove(cacheKey)
		}
		c.lruMisses.Add(1)
	}

	if c.dynamoCache == nil {
		return nil, nil
	}

	record, err := c.dynamoCache.GetForecast(ctx, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("getting forecast from DynamoDB: %w", err)
	}
	if record == nil {
		c.dynamoMisses.Add(1)
		return nil, nil
	}

	c.dynamoHits.Add(1)
	c.addToLRU(cacheKey, *record)
	return record, nil
}

// SaveForecast saves a forecast to both layers
func (c *ForecastCacheService) SaveForecast(ctx context.Context, record models.ForecastRecord) error {
	c.addToLRU(keyOf(record), record)

	if c.dynamoCache != nil {
		if err := c.dynamoCache.SaveForecast(ctx, record); err != nil {
			return fmt.Errorf("saving forecast to DynamoDB: %w", err)
		}
	}
	return nil
}

// SaveForecastsBatch saves multiple forecasts to both layers
func (c *ForecastCacheService) SaveForecastsBatch(ctx context.Context, records []models.ForecastRecord) error {
	for _, record := range records {
		c.addToLRU(keyOf(record), record)
	}

	if c.dynamoCache != nil {
		if err := c.dynamoCache.SaveForecastsBatch(ctx, records); err != nil {
			return fmt.Errorf("saving forecast batch to DynamoDB: %w", err)
		}
	}
	return nil
}

func (c *ForecastCacheService) addToLRU(key string, record models.ForecastRecord) {
	if c.lru == nil {
		return
	}
	c.lru.Add(key, &LRUCacheEntry{
		Data:      record,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	})
}

func keyOf(record models.ForecastRecord) string {
	if record.CacheKey != "" {
		return record.CacheKey
	}
	return models.CacheKeyFor(record.StationID, record.Horizon)
}

// GetCacheStats returns statistics about cache hits and misses
func (c *ForecastCacheService) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":      c.lruHits.Load(),
		"lru_misses":    c.lruMisses.Load(),
		"dynamo_hits":   c.dynamoHits.Load(),
		"dynamo_misses": c.dynamoMisses.Load(),
	}
}

// LogStats writes the hit/miss counters at debug level
func (c *ForecastCacheService) LogStats() {
	stats := c.GetCacheStats()
	log.Debug().
		Uint64("lru_hits", stats["lru_hits"]).
		Uint64("lru_misses", stats["lru_misses"]).
		Uint64("dynamo_hits", stats["dynamo_hits"]).
		Uint64("dynamo_misses", stats["dynamo_misses"]).
		Msg("Forecast cache stats")
}

// Clear removes all entries from the LRU cache
func (c *ForecastCacheService) Clear() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
