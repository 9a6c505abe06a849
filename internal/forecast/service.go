package forecast

import (
	"context"
	"errors"
	"fmt"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
	"github.com/bbernstein/surfcast/backend-go/internal/surf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrNoSnapshotStore = errors.New("no snapshot store configured")

var (
	_ ForecastService = (*Service)(nil)
	_ IngestService   = (*Service)(nil)
)

type Service struct {
	fetcher   RawFetcher
	parser    *ndbc.Parser
	snapshots SnapshotStore
	cache     CacheProvider
	clock     clockwork.Clock
}

type Option func(*Service)

// WithSnapshotStore enables snapshot ingest and the fallback to the newest
// snapshot when the live feed cannot be fetched or parsed
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Service) {
		s.snapshots = store
	}
}

func WithCache(cache CacheProvider) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func WithParser(parser *ndbc.Parser) Option {
	return func(s *Service) {
		s.parser = parser
	}
}

func NewService(fetcher RawFetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		parser:  ndbc.NewParser(nil),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetForecast returns the forecast of a station over horizon hours, from the
// cache when a live result is held there.
func (s *Service) GetForecast(ctx context.Context, stationID string, horizon int) (*models.ForecastResponse, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("invalid horizon: %d", horizon)
	}

	key := models.CacheKeyFor(stationID, horizon)
	if s.cache != nil {
		record, err := s.cache.GetForecast(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("cache_key", key).Msg("Forecast cache lookup failed")
		} else if record != nil {
			log.Debug().Str("cache_key", key).Msg("Forecast cache hit")
			return models.NewForecastResponse(record), nil
		}
	}

	record, err := s.buildRecord(ctx, stationID, horizon)
	if err != nil {
		return nil, err
	}

	// Only live results are cached
	if s.cache != nil && record.Source == models.SourceLive {
		if err := s.cache.SaveForecast(ctx, *record); err != nil {
			log.Warn().Err(err).Str("cache_key", key).Msg("Failed to cache forecast")
		}
	}

	return models.NewForecastResponse(record), nil
}

// Ingest fetches and parses a station's live feed and stores it as a
// snapshot. The parsed dataset is returned with the snapshot key.
func (s *Service) Ingest(ctx context.Context, stationID string) (*IngestResult, error) {
	if s.snapshots == nil {
		return nil, ErrNoSnapshotStore
	}

	text, err := s.fetcher.FetchRealtime(ctx, stationID)
	if err != nil {
		return nil, err
	}
	ds, err := s.parser.Parse(text)
	if err != nil {
		return nil, err
	}

	key, err := s.snapshots.SaveSnapshot(ctx, stationID, ds)
	if err != nil {
		return nil, fmt.Errorf("saving snapshot for %s: %w", stationID, err)
	}

	log.Info().
		Str("station_id", stationID).
		Str("key", key).
		Int("rows", ds.Len()).
		Msg("Ingested station feed")
	return &IngestResult{StationID: stationID, Key: key, Dataset: ds}, nil
}

// WarmCache computes forecasts from freshly ingested feeds and caches them
// in one batch. Stations fail independently; their errors are joined.
func (s *Service) WarmCache(ctx context.Context, results []IngestResult, horizon int) error {
	if horizon < 1 {
		return fmt.Errorf("invalid horizon: %d", horizon)
	}

	var errs []error
	var records []models.ForecastRecord
	for _, result := range results {
		if result.Dataset == nil {
			errs = append(errs, fmt.Errorf("station %s: no dataset", result.StationID))
			continue
		}
		record, err := s.newRecord(result.StationID, horizon, result.Dataset, models.SourceLive)
		if err != nil {
			errs = append(errs, fmt.Errorf("station %s: %w", result.StationID, err))
			continue
		}
		records = append(records, *record)
	}

	if s.cache != nil && len(records) > 0 {
		if err := s.cache.SaveForecastsBatch(ctx, records); err != nil {
			errs = append(errs, fmt.Errorf("caching forecasts: %w", err))
		}
	}

	log.Info().
		Int("stations", len(results)).
		Int("cached", len(records)).
		Int("failed", len(errs)).
		Msg("Warmed forecast cache")

	return errors.Join(errs...)
}

func (s *Service) buildRecord(ctx context.Context, stationID string, horizon int) (*models.ForecastRecord, error) {
	ds, source, err := s.loadObservations(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return s.newRecord(stationID, horizon, ds, source)
}

func (s *Service) newRecord(stationID string, horizon int, ds *models.Dataset, source string) (*models.ForecastRecord, error) {
	out, err := surf.BuildForecast(ds, horizon)
	if err != nil {
		return nil, err
	}

	record := &models.ForecastRecord{
		CacheKey:    models.CacheKeyFor(stationID, horizon),
		StationID:   stationID,
		Horizon:     horizon,
		Source:      source,
		GeneratedAt: s.clock.Now().UnixMilli(),
		Points:      models.PointsFromDataset(out),
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("building forecast for %s: %w", stationID, err)
	}
	return record, nil
}

// loadObservations parses the live feed, falling back to the newest snapshot
// when the fetch or the parse fails and a store is configured. The original
// error is returned when no snapshot can stand in.
func (s *Service) loadObservations(ctx context.Context, stationID string) (*models.Dataset, string, error) {
	text, err := s.fetcher.FetchRealtime(ctx, stationID)
	if err == nil {
		ds, parseErr := s.parser.Parse(text)
		if parseErr == nil {
			return ds, models.SourceLive, nil
		}
		err = parseErr
	}

	if s.snapshots == nil {
		return nil, "", err
	}

	snapshot, key, snapErr := s.snapshots.LatestSnapshot(ctx, stationID)
	if snapErr != nil {
		log.Error().Err(snapErr).Str("station_id", stationID).Msg("Snapshot fallback failed")
		return nil, "", err
	}
	if snapshot == nil {
		return nil, "", err
	}

	log.Warn().
		Err(err).
		Str("station_id", stationID).
		Str("snapshot", key).
		Msg("Live feed unavailable, using snapshot")
	return snapshot, fmt.Sprintf("%s:%s", models.SourceSnapshot, key), nil
}
