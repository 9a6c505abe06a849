package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/surfcast/backend-go/internal/forecast"
	"github.com/rs/zerolog/log"
)

// IngestHandler snapshots every configured station on a schedule and then
// warms the forecast cache from the feeds it just parsed.
type IngestHandler struct {
	service  forecast.IngestService
	stations []string
	horizon  int
}

func NewIngestHandler(service forecast.IngestService, stations []string, horizon int) *IngestHandler {
	return &IngestHandler{
		service:  service,
		stations: stations,
		horizon:  horizon,
	}
}

func (h *IngestHandler) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	if len(h.stations) == 0 {
		log.Warn().Str("event_id", event.ID).Msg("No stations configured for ingest")
		return nil
	}

	log.Info().
		Str("event_id", event.ID).
		Int("stations", len(h.stations)).
		Msg("Starting scheduled ingest")

	var errs []error
	var results []forecast.IngestResult
	for _, stationID := range h.stations {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		result, err := h.service.Ingest(ctx, stationID)
		if err != nil {
			log.Error().Err(err).Str("station_id", stationID).Msg("Ingest failed")
			errs = append(errs, fmt.Errorf("ingest %s: %w", stationID, err))
			continue
		}
		results = append(results, *result)
	}

	if len(results) > 0 {
		if err := h.service.WarmCache(ctx, results, h.horizon); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
