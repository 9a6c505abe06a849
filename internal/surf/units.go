package surf

import "github.com/bbernstein/surfcast/backend-go/internal/models"

const (
	MetersToFeet = 3.28084
	MpsToMph     = 2.23694
	MpsToKnots   = 1.94384

	MinPeriod = 3.0
	MaxPeriod = 22.0
)

// Normalize converts raw instrument units and resolves the dominant period.
// The input is not modified; the result is sorted by time with duplicate
// timestamps removed.
//
//   - WVHT (m) becomes Hs_ft
//   - WSPD (m/s) becomes wind_mph and wind_kt
//   - Tp_s is DPD, gaps filled from APD, then carried forward and backward
//     in time and clipped to [3, 22]
//
// Derived columns are omitted when their source fields are absent.
func Normalize(ds *models.Dataset) *models.Dataset {
	out := ds.SortedByTime()

	if hs, ok := out.Column(models.FieldWaveHeight); ok {
		_ = out.SetColumn(models.ColumnHsFt, scale(hs, MetersToFeet))
	}

	if wind, ok := out.Column(models.FieldWindSpeed); ok {
		_ = out.SetColumn(models.ColumnWindMph, scale(wind, MpsToMph))
		_ = out.SetColumn(models.ColumnWindKt, scale(wind, MpsToKnots))
	}

	if tp, ok := resolvePeriod(out); ok {
		_ = out.SetColumn(models.ColumnTpS, tp)
	}

	return out
}

// resolvePeriod builds Tp_s from DPD with APD as the secondary source.
func resolvePeriod(ds *models.Dataset) ([]*float64, bool) {
	dpd, hasDPD := ds.Column(models.FieldDominantPer)
	apd, hasAPD := ds.Column(models.FieldAveragePer)
	if !hasDPD && !hasAPD {
		return nil, false
	}

	tp := make([]*float64, ds.Len())
	for i := range tp {
		switch {
		case hasDPD && dpd[i] != nil:
			tp[i] = dpd[i]
		case hasAPD && apd[i] != nil:
			tp[i] = apd[i]
		}
	}

	tp = backFill(forwardFill(tp))
	for i, v := range tp {
		if v != nil {
			tp[i] = models.Float64(clip(*v, MinPeriod, MaxPeriod))
		}
	}
	return tp, true
}

func scale(values []*float64, factor float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = models.Float64(*v * factor)
		}
	}
	return out
}

// forwardFill replaces each null with the last non-null value before it.
func forwardFill(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	var last *float64
	for i, v := range values {
		if v != nil {
			last = v
		}
		out[i] = last
	}
	return out
}

// backFill replaces each null with the next non-null value after it.
func backFill(values []*float64) []*float64 {
	out := make([]*float64, len(values))
	var next *float64
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			next = values[i]
		}
		out[i] = next
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
