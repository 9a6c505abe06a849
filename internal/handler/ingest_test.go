package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/surfcast/backend-go/internal/forecast"
	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, stationID string) (*forecast.IngestResult, error) {
	args := m.Called(ctx, stationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forecast.IngestResult), args.Error(1)
}

func (m *MockIngestService) WarmCache(ctx context.Context, results []forecast.IngestResult, horizon int) error {
	args := m.Called(ctx, results, horizon)
	return args.Error(0)
}

func ingestResult(stationID, key string) *forecast.IngestResult {
	ds := models.NewDataset([]time.Time{time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)})
	_ = ds.SetColumn(models.FieldWaveHeight, []*float64{models.Float64(1.5)})
	return &forecast.IngestResult{StationID: stationID, Key: key, Dataset: ds}
}

func stationsOf(results []forecast.IngestResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.StationID
	}
	return ids
}

func TestIngestHandler(t *testing.T) {
	stations := []string{"46222", "46025"}

	t.Run("all stations ingested", func(t *testing.T) {
		a, b := ingestResult("46222", "raw/a.csv"), ingestResult("46025", "raw/b.csv")

		svc := new(MockIngestService)
		svc.On("Ingest", mock.Anything, "46222").Return(a, nil).Once()
		svc.On("Ingest", mock.Anything, "46025").Return(b, nil).Once()
		svc.On("WarmCache", mock.Anything, []forecast.IngestResult{*a, *b}, 6).Return(nil).Once()

		h := NewIngestHandler(svc, stations, 6)
		err := h.HandleEvent(context.Background(), events.CloudWatchEvent{ID: "evt-1"})
		require.NoError(t, err)

		svc.AssertExpectations(t)
	})

	t.Run("one station failing does not stop the rest", func(t *testing.T) {
		ingestErr := errors.New("feed down")
		svc := new(MockIngestService)
		svc.On("Ingest", mock.Anything, "46222").Return(nil, ingestErr).Once()
		svc.On("Ingest", mock.Anything, "46025").Return(ingestResult("46025", "raw/b.csv"), nil).Once()
		svc.On("WarmCache", mock.Anything, mock.MatchedBy(func(results []forecast.IngestResult) bool {
			ids := stationsOf(results)
			return len(ids) == 1 && ids[0] == "46025"
		}), 6).Return(nil).Once()

		h := NewIngestHandler(svc, stations, 6)
		err := h.HandleEvent(context.Background(), events.CloudWatchEvent{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ingestErr)
		assert.Contains(t, err.Error(), "ingest 46222")

		svc.AssertExpectations(t)
	})

	t.Run("nothing ingested skips warming", func(t *testing.T) {
		svc := new(MockIngestService)
		svc.On("Ingest", mock.Anything, mock.Anything).Return(nil, errors.New("feed down"))

		h := NewIngestHandler(svc, stations, 6)
		require.Error(t, h.HandleEvent(context.Background(), events.CloudWatchEvent{}))

		svc.AssertNotCalled(t, "WarmCache", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("warm cache failure is reported", func(t *testing.T) {
		warmErr := errors.New("batch write failed")
		svc := new(MockIngestService)
		svc.On("Ingest", mock.Anything, "46222").Return(ingestResult("46222", "raw/a.csv"), nil)
		svc.On("Ingest", mock.Anything, "46025").Return(ingestResult("46025", "raw/b.csv"), nil)
		svc.On("WarmCache", mock.Anything, mock.Anything, 6).Return(warmErr).Once()

		h := NewIngestHandler(svc, stations, 6)
		err := h.HandleEvent(context.Background(), events.CloudWatchEvent{})
		assert.ErrorIs(t, err, warmErr)
	})

	t.Run("no stations configured", func(t *testing.T) {
		svc := new(MockIngestService)

		h := NewIngestHandler(svc, nil, 6)
		require.NoError(t, h.HandleEvent(context.Background(), events.CloudWatchEvent{}))

		svc.AssertNotCalled(t, "WarmCache", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled context stops before warming", func(t *testing.T) {
		svc := new(MockIngestService)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := NewIngestHandler(svc, stations, 6)
		err := h.HandleEvent(ctx, events.CloudWatchEvent{})
		assert.ErrorIs(t, err, context.Canceled)

		svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
		svc.AssertNotCalled(t, "WarmCache", mock.Anything, mock.Anything, mock.Anything)
	})
}
