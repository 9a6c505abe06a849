package surf

import (
	"math"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
)

// FaceFactor scales significant height to an approximate breaking face height.
const FaceFactor = 1.2

// PeriodBoost is the period multiplier of the proxy: sqrt(0.8) at 3 s rising
// to sqrt(1.6) at 22 s. Periods outside [3, 22] are clipped first.
func PeriodBoost(periodS float64) float64 {
	tp := clip(periodS, MinPeriod, MaxPeriod)
	return math.Sqrt((tp-MinPeriod)/(MaxPeriod-MinPeriod)*0.8 + 0.8)
}

// SurfFaceProxy is the surf face estimate in feet for one height/period pair,
// rounded to one decimal.
func SurfFaceProxy(hsFt, periodS float64) float64 {
	hs := math.Max(hsFt, 0)
	return roundTenth(hs * PeriodBoost(periodS) * FaceFactor)
}

// EstimateProxy adds surf_face_proxy_ft. When Hs_ft or Tp_s is not a column
// of the dataset it is returned unchanged. Rows missing either input get a
// null proxy.
func EstimateProxy(ds *models.Dataset) *models.Dataset {
	hs, okHs := ds.Column(models.ColumnHsFt)
	tp, okTp := ds.Column(models.ColumnTpS)
	if !okHs || !okTp {
		return ds
	}

	proxy := make([]*float64, ds.Len())
	for i := range proxy {
		if hs[i] == nil || tp[i] == nil {
			continue
		}
		proxy[i] = models.Float64(SurfFaceProxy(*hs[i], *tp[i]))
	}

	out := ds.Clone()
	_ = out.SetColumn(models.ColumnSurfProxy, proxy)
	return out
}

// roundTenth rounds half to even at one decimal.
func roundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
