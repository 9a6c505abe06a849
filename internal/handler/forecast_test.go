package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
	"github.com/bbernstein/surfcast/backend-go/internal/surf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockForecastService struct {
	mock.Mock
}

func (m *MockForecastService) GetForecast(ctx context.Context, stationID string, horizon int) (*models.ForecastResponse, error) {
	args := m.Called(ctx, stationID, horizon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastResponse), args.Error(1)
}

func testForecastResponse(stationID string, horizon int) *models.ForecastResponse {
	return models.NewForecastResponse(&models.ForecastRecord{
		StationID:   stationID,
		Horizon:     horizon,
		Source:      models.SourceLive,
		GeneratedAt: 1705320000000,
		Points: []models.ForecastPoint{
			{
				Timestamp:       1705320000000,
				TimeUTC:         "2024-01-15T12:00:00Z",
				SurfFaceProxyFt: models.Float64(5.0),
			},
			{
				Timestamp:       1705323600000,
				TimeUTC:         "2024-01-15T13:00:00Z",
				SurfFaceProxyFt: models.Float64(4.6),
				IsForecast:      true,
			},
		},
	})
}

func request(params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{QueryStringParameters: params}
}

func TestForecastHandlerSuccess(t *testing.T) {
	svc := new(MockForecastService)
	svc.On("GetForecast", mock.Anything, "46222", 1).Return(testForecastResponse("46222", 1), nil)

	h := NewForecastHandler(svc, 6, 72)
	resp, err := h.HandleRequest(context.Background(), request(map[string]string{
		"stationId": "46222",
		"horizon":   "1",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.ForecastResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, models.ResponseTypeForecast, body.ResponseType)
	assert.Equal(t, "46222", body.StationID)
	require.Len(t, body.Points, 2)
	assert.True(t, body.Points[1].IsForecast)
	require.NotNil(t, body.ForecastValue)
	assert.Equal(t, 4.6, *body.ForecastValue)

	svc.AssertExpectations(t)
}

func TestForecastHandlerDefaultsHorizon(t *testing.T) {
	svc := new(MockForecastService)
	svc.On("GetForecast", mock.Anything, "LJPC1", 6).Return(testForecastResponse("LJPC1", 6), nil)

	h := NewForecastHandler(svc, 6, 72)
	resp, err := h.HandleRequest(context.Background(), request(map[string]string{"stationId": "ljpc1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.AssertExpectations(t)
}

func TestForecastHandlerBadRequest(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		wantMsg string
	}{
		{
			name:    "missing station",
			params:  map[string]string{},
			wantMsg: "Missing required parameter: stationId",
		},
		{
			name:    "invalid station",
			params:  map[string]string{"stationId": "46 222"},
			wantMsg: "Invalid station ID: 46 222",
		},
		{
			name:    "horizon too large",
			params:  map[string]string{"stationId": "46222", "horizon": "100"},
			wantMsg: `Invalid horizon "100": must be a whole number of hours between 1 and 72`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockForecastService)
			h := NewForecastHandler(svc, 6, 72)

			resp, err := h.HandleRequest(context.Background(), request(tt.params))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, "error", body["responseType"])
			assert.Equal(t, tt.wantMsg, body["error"])

			svc.AssertNotCalled(t, "GetForecast", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestForecastHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "no observations",
			err:        surf.NewInsufficientDataError("dataset has no rows"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "No observations yet",
		},
		{
			name:       "unknown station upstream",
			err:        &ndbc.FetchError{StationID: "46222", StatusCode: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Station not found",
		},
		{
			name:       "upstream unavailable",
			err:        &ndbc.FetchError{StationID: "46222", StatusCode: http.StatusServiceUnavailable},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "NDBC feed unavailable",
		},
		{
			name:       "wrapped format error",
			err:        fmt.Errorf("loading: %w", ndbc.NewFormatError("no header line found")),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "NDBC feed could not be parsed",
		},
		{
			name:       "anything else",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Error getting forecast",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockForecastService)
			svc.On("GetForecast", mock.Anything, "46222", 6).Return(nil, tt.err)

			h := NewForecastHandler(svc, 6, 72)
			resp, err := h.HandleRequest(context.Background(), request(map[string]string{"stationId": "46222"}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.wantMsg, body["error"])

			svc.AssertExpectations(t)
		})
	}
}
