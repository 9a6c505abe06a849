package forecast

import (
	"context"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
)

type ForecastService interface {
	GetForecast(ctx context.Context, stationID string, horizon int) (*models.ForecastResponse, error)
}

type IngestService interface {
	Ingest(ctx context.Context, stationID string) (*IngestResult, error)
	WarmCache(ctx context.Context, results []IngestResult, horizon int) error
}

// IngestResult is a parsed feed and the key of the snapshot it was saved to
type IngestResult struct {
	StationID string
	Key       string
	Dataset   *models.Dataset
}

// RawFetcher returns the realtime2 text of a station
type RawFetcher interface {
	FetchRealtime(ctx context.Context, stationID string) (string, error)
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, stationID string, ds *models.Dataset) (string, error)
	LatestSnapshot(ctx context.Context, stationID string) (*models.Dataset, string, error)
}

type CacheProvider interface {
	GetForecast(ctx context.Context, cacheKey string) (*models.ForecastRecord, error)
	SaveForecast(ctx context.Context, record models.ForecastRecord) error
	SaveForecastsBatch(ctx context.Context, records []models.ForecastRecord) error
}
