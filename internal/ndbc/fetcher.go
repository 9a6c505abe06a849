package ndbc

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bbernstein/surfcast/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://www.ndbc.noaa.gov"

// stationIDRe matches NDBC station identifiers such as 46222 or LJPC1.
var stationIDRe = regexp.MustCompile(`^[A-Za-z0-9]{4,8}$`)

// Fetcher retrieves realtime2 station files.
type Fetcher struct {
	httpClient client.Interface
}

func NewFetcher(httpClient client.Interface) *Fetcher {
	return &Fetcher{httpClient: httpClient}
}

// ValidStationID reports whether id looks like an NDBC station identifier.
func ValidStationID(id string) bool {
	return stationIDRe.MatchString(id)
}

// FetchRealtime returns the raw text of a station's realtime2 file.
func (f *Fetcher) FetchRealtime(ctx context.Context, stationID string) (string, error) {
	if !ValidStationID(stationID) {
		return "", &FetchError{StationID: stationID, Err: fmt.Errorf("invalid station id")}
	}

	resp, err := f.httpClient.Get(ctx, fmt.Sprintf("/data/realtime2/%s.txt", stationID))
	if err != nil {
		return "", &FetchError{StationID: stationID, Err: err}
	}
	if resp == nil {
		return "", &FetchError{StationID: stationID, Err: client.ErrNilResponse}
	}
	if !client.IsSuccess(resp) {
		return "", &FetchError{StationID: stationID, StatusCode: resp.StatusCode}
	}

	log.Debug().
		Str("station_id", stationID).
		Int("bytes", len(resp.Body)).
		Msg("Fetched realtime feed from NDBC")

	return string(resp.Body), nil
}
