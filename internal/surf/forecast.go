package surf

import (
	"math"
	"time"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// EMASpan is the smoothing span of the trend forecast (alpha = 2/(span+1)).
	EMASpan = 6

	// ForecastStep is the spacing of projected rows.
	ForecastStep = time.Hour
)

// EMA returns the exponentially weighted moving average of values using the
// recursive form: e[0] = x[0], e[i] = alpha*x[i] + (1-alpha)*e[i-1].
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Forecast appends horizon hourly rows after the last observation, each
// holding the same projected surf_face_proxy_ft. The projection is the final
// EMA of the non-null proxy history, or the last Hs_ft times 1.2 when no
// proxy exists. With neither, or a non-positive horizon, only the history is
// returned. Rows are sorted by time. Rows already flagged as forecast are
// dropped, so the history and the anchor are observations only.
//
// A dataset with no observed rows has no timestamp to anchor the projection
// and fails with InsufficientDataError.
func Forecast(ds *models.Dataset, horizon int) (*models.Dataset, error) {
	in := ds.Observed()
	if in.Len() == 0 {
		return nil, NewInsufficientDataError("dataset has no observed rows")
	}

	if !in.HasColumn(models.ColumnSurfProxy) {
		in = EstimateProxy(in)
	}
	out := in.SortedByTime()

	value, ok := forecastValue(out)
	if !ok {
		log.Debug().Msg("No proxy or height history, returning observations only")
		return out, nil
	}
	if horizon <= 0 {
		return out, nil
	}

	if !out.HasColumn(models.ColumnSurfProxy) {
		_ = out.SetColumn(models.ColumnSurfProxy, make([]*float64, out.Len()))
	}

	last, _ := out.LastTime()
	for step := 1; step <= horizon; step++ {
		out.AppendRow(last.Add(time.Duration(step)*ForecastStep), map[string]*float64{
			models.ColumnSurfProxy: models.Float64(value),
		}, true)
	}
	return out, nil
}

// forecastValue picks the flat projection for a time-sorted dataset.
func forecastValue(ds *models.Dataset) (float64, bool) {
	if proxy, ok := ds.Column(models.ColumnSurfProxy); ok {
		var series []float64
		for _, v := range proxy {
			if v != nil {
				series = append(series, *v)
			}
		}
		if len(series) > 0 {
			ema := EMA(series, EMASpan)
			return ema[len(ema)-1], true
		}
	}

	if hs, ok := ds.Column(models.ColumnHsFt); ok {
		for i := len(hs) - 1; i >= 0; i-- {
			if hs[i] != nil {
				log.Debug().Float64("hs_ft", *hs[i]).Msg("No proxy history, projecting from wave height")
				return math.Max(*hs[i], 0) * FaceFactor, true
			}
		}
	}

	return 0, false
}

// BuildForecast runs the full pipeline on a parsed dataset: unit
// normalization, surf proxy estimation and the trend forecast.
func BuildForecast(ds *models.Dataset, horizon int) (*models.Dataset, error) {
	return Forecast(EstimateProxy(Normalize(ds)), horizon)
}
