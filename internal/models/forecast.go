package models

import (
	"fmt"
	"time"
)

const (
	// TimeLayout is the wire format of time_utc values.
	TimeLayout = time.RFC3339

	ResponseTypeForecast = "forecast"
	SourceLive           = "live"
	SourceSnapshot       = "snapshot"
)

// ForecastPoint is one row of the output table: either an observed hour or a
// projected one. Every derived value may be null.
type ForecastPoint struct {
	Timestamp       int64               `json:"timestamp" dynamodbav:"timestamp"` // unix millis
	TimeUTC         string              `json:"time_utc" dynamodbav:"timeUtc"`
	HsFt            *float64            `json:"Hs_ft" dynamodbav:"hsFt"`
	TpS             *float64            `json:"Tp_s" dynamodbav:"tpS"`
	WindMph         *float64            `json:"wind_mph" dynamodbav:"windMph"`
	WindKt          *float64            `json:"wind_kt" dynamodbav:"windKt"`
	SurfFaceProxyFt *float64            `json:"surf_face_proxy_ft" dynamodbav:"surfFaceProxyFt"`
	IsForecast      bool                `json:"is_forecast" dynamodbav:"isForecast"`
	Extra           map[string]*float64 `json:"extra,omitempty" dynamodbav:"extra,omitempty"`
}

// Conditions summarises the latest observed row.
type Conditions struct {
	TimeUTC         string   `json:"time_utc"`
	SurfFaceProxyFt *float64 `json:"surf_face_proxy_ft"`
	HsFt            *float64 `json:"Hs_ft"`
	TpS             *float64 `json:"Tp_s"`
	WindMph         *float64 `json:"wind_mph"`
}

// ForecastRecord is a computed forecast for one station and horizon, as
// stored in the forecast caches.
type ForecastRecord struct {
	CacheKey    string          `dynamodbav:"cacheKey"`
	StationID   string          `dynamodbav:"stationId"`
	Horizon     int             `dynamodbav:"horizon"`
	Source      string          `dynamodbav:"source"`
	GeneratedAt int64           `dynamodbav:"generatedAt"`
	Points      []ForecastPoint `dynamodbav:"points"`
	LastUpdated int64           `dynamodbav:"lastUpdated"`
	TTL         int64           `dynamodbav:"ttl"`
}

// ForecastResponse is the body returned to display clients
type ForecastResponse struct {
	ResponseType  string          `json:"responseType"`
	StationID     string          `json:"stationId"`
	Horizon       int             `json:"horizon"`
	Source        string          `json:"source"`
	GeneratedAt   int64           `json:"generatedAt"`
	Latest        *Conditions     `json:"latest"`
	ForecastValue *float64        `json:"forecastValue"`
	Points        []ForecastPoint `json:"points"`
}

// CacheKeyFor builds the cache key of a station/horizon pair.
func CacheKeyFor(stationID string, horizon int) string {
	return fmt.Sprintf("%s:%d", stationID, horizon)
}

// PointsFromDataset flattens a forecast dataset into output rows. Columns
// other than the derived ones end up in Extra.
func PointsFromDataset(ds *Dataset) []ForecastPoint {
	derived := map[string]bool{
		ColumnHsFt: true, ColumnTpS: true, ColumnWindMph: true,
		ColumnWindKt: true, ColumnSurfProxy: true,
	}

	points := make([]ForecastPoint, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		t := ds.Time(i)
		p := ForecastPoint{
			Timestamp:       t.UnixMilli(),
			TimeUTC:         t.Format(TimeLayout),
			HsFt:            ds.Value(ColumnHsFt, i),
			TpS:             ds.Value(ColumnTpS, i),
			WindMph:         ds.Value(ColumnWindMph, i),
			WindKt:          ds.Value(ColumnWindKt, i),
			SurfFaceProxyFt: ds.Value(ColumnSurfProxy, i),
			IsForecast:      ds.IsForecast(i),
		}
		if !p.IsForecast {
			for _, name := range ds.Columns() {
				if derived[name] {
					continue
				}
				if p.Extra == nil {
					p.Extra = make(map[string]*float64)
				}
				p.Extra[name] = ds.Value(name, i)
			}
		}
		points[i] = p
	}
	return points
}

// NewForecastResponse builds the client view of a record.
func NewForecastResponse(record *ForecastRecord) *ForecastResponse {
	resp := &ForecastResponse{
		ResponseType: ResponseTypeForecast,
		StationID:    record.StationID,
		Horizon:      record.Horizon,
		Source:       record.Source,
		GeneratedAt:  record.GeneratedAt,
		Points:       record.Points,
	}
	if resp.Points == nil {
		resp.Points = []ForecastPoint{}
	}

	for i := len(record.Points) - 1; i >= 0; i-- {
		p := record.Points[i]
		if p.IsForecast {
			if resp.ForecastValue == nil {
				resp.ForecastValue = p.SurfFaceProxyFt
			}
			continue
		}
		resp.Latest = &Conditions{
			TimeUTC:         p.TimeUTC,
			SurfFaceProxyFt: p.SurfFaceProxyFt,
			HsFt:            p.HsFt,
			TpS:             p.TpS,
			WindMph:         p.WindMph,
		}
		break
	}
	return resp
}

// Validate checks a point's fields
func (p *ForecastPoint) Validate() error {
	if p.Timestamp <= 0 {
		return fmt.Errorf("invalid timestamp: %d", p.Timestamp)
	}

	t, err := time.Parse(TimeLayout, p.TimeUTC)
	if err != nil {
		return fmt.Errorf("invalid time_utc format: %s", p.TimeUTC)
	}
	if t.UnixMilli() != p.Timestamp {
		return fmt.Errorf("time_utc %s does not match timestamp %d", p.TimeUTC, p.Timestamp)
	}

	if p.TpS != nil && (*p.TpS < 3 || *p.TpS > 22) {
		return fmt.Errorf("period out of range: %f", *p.TpS)
	}
	if p.SurfFaceProxyFt != nil && *p.SurfFaceProxyFt < 0 {
		return fmt.Errorf("negative surf proxy: %f", *p.SurfFaceProxyFt)
	}
	if p.IsForecast && p.SurfFaceProxyFt == nil {
		return fmt.Errorf("forecast point without value")
	}

	return nil
}

// Validate checks a record's fields and the ordering of its points: history
// strictly increasing, then forecast points hourly after the last history row.
func (r *ForecastRecord) Validate() error {
	if r.StationID == "" {
		return fmt.Errorf("station ID is required")
	}
	if r.Horizon < 1 {
		return fmt.Errorf("invalid horizon: %d", r.Horizon)
	}

	var prev int64
	forecastCount := 0
	for i, p := range r.Points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid point at index %d: %w", i, err)
		}

		switch {
		case p.IsForecast:
			if i == 0 {
				return fmt.Errorf("forecast point at index 0 has no history to anchor it")
			}
			if p.Timestamp-prev != time.Hour.Milliseconds() {
				return fmt.Errorf("forecast point at index %d is not one hour after its predecessor", i)
			}
			forecastCount++
		case forecastCount > 0:
			return fmt.Errorf("history point at index %d follows forecast points", i)
		case i > 0 && p.Timestamp <= prev:
			return fmt.Errorf("history point at index %d is not after its predecessor", i)
		}
		prev = p.Timestamp
	}

	if forecastCount != 0 && forecastCount != r.Horizon {
		return fmt.Errorf("record has %d forecast points, horizon is %d", forecastCount, r.Horizon)
	}

	return nil
}
