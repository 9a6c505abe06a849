package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/surfcast/backend-go/internal/api"
	"github.com/bbernstein/surfcast/backend-go/internal/forecast"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
	"github.com/bbernstein/surfcast/backend-go/internal/surf"
	"github.com/rs/zerolog/log"
)

type ForecastHandler struct {
	service        forecast.ForecastService
	defaultHorizon int
	maxHorizon     int
}

func NewForecastHandler(service forecast.ForecastService, defaultHorizon, maxHorizon int) *ForecastHandler {
	return &ForecastHandler{
		service:        service,
		defaultHorizon: defaultHorizon,
		maxHorizon:     maxHorizon,
	}
}

func (h *ForecastHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params, err := api.ParseForecastParams(request.QueryStringParameters, h.defaultHorizon, h.maxHorizon)
	if err != nil {
		return api.Error(err.Error(), http.StatusBadRequest)
	}

	response, err := h.service.GetForecast(ctx, params.StationID, params.Horizon)
	if err != nil {
		log.Error().
			Err(err).
			Str("station_id", params.StationID).
			Int("horizon", params.Horizon).
			Msg("Error getting forecast")
		return errorResponse(err)
	}

	return api.Success(response)
}

// errorResponse maps pipeline failures to client-facing statuses
func errorResponse(err error) (events.APIGatewayProxyResponse, error) {
	var insufficientErr *surf.InsufficientDataError
	if errors.As(err, &insufficientErr) {
		return api.Error("No observations yet", http.StatusNotFound)
	}

	var fetchErr *ndbc.FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.StatusCode == http.StatusNotFound {
			return api.Error("Station not found", http.StatusNotFound)
		}
		return api.Error("NDBC feed unavailable", http.StatusBadGateway)
	}

	var formatErr *ndbc.FormatError
	if errors.As(err, &formatErr) {
		return api.Error("NDBC feed could not be parsed", http.StatusBadGateway)
	}

	return api.Error("Error getting forecast", http.StatusInternalServerError)
}
