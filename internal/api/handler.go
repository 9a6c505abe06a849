package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/surfcast/backend-go/internal/ndbc"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    responseHeaders(),
		Body:       string(body),
	}, nil
}

func responseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// ForecastParams are the validated query parameters of a forecast request
type ForecastParams struct {
	StationID string
	Horizon   int
}

// ParseForecastParams reads stationId and the optional horizon (hours).
// A missing horizon takes defaultHorizon; given ones must lie in 1..maxHorizon.
func ParseForecastParams(params map[string]string, defaultHorizon, maxHorizon int) (ForecastParams, error) {
	stationID := strings.TrimSpace(params["stationId"])
	if stationID == "" {
		return ForecastParams{}, MissingParameterError{Name: "stationId"}
	}
	if !ndbc.ValidStationID(stationID) {
		return ForecastParams{}, InvalidStationError{StationID: stationID}
	}

	horizon := defaultHorizon
	if raw, ok := params["horizon"]; ok && strings.TrimSpace(raw) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return ForecastParams{}, InvalidHorizonError{Value: raw, Max: maxHorizon}
		}
		horizon = parsed
		if horizon < 1 || horizon > maxHorizon {
			return ForecastParams{}, InvalidHorizonError{Value: raw, Max: maxHorizon}
		}
	}

	return ForecastParams{
		StationID: strings.ToUpper(stationID),
		Horizon:   horizon,
	}, nil
}

type MissingParameterError struct {
	Name string
}

func (e MissingParameterError) Error() string {
	return fmt.Sprintf("Missing required parameter: %s", e.Name)
}

type InvalidStationError struct {
	StationID string
}

func (e InvalidStationError) Error() string {
	return fmt.Sprintf("Invalid station ID: %s", e.StationID)
}

type InvalidHorizonError struct {
	Value string
	Max   int
}

func (e InvalidHorizonError) Error() string {
	return fmt.Sprintf("Invalid horizon %q: must be a whole number of hours between 1 and %d", e.Value, e.Max)
}
