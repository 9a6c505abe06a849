package surf

import (
	"errors"
	"testing"
	"time"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	t.Parallel()

	assert.Nil(t, EMA(nil, EMASpan))

	ema := EMA([]float64{2, 3, 4, 3, 5}, EMASpan)
	require.Len(t, ema, 5)
	assert.InDelta(t, 2.0, ema[0], 1e-12)
	assert.InDelta(t, 16.0/7.0, ema[1], 1e-12)
	assert.InDelta(t, 8300.0/2401.0, ema[4], 1e-12)

	constant := EMA([]float64{4, 4, 4}, EMASpan)
	assert.InDeltaSlice(t, []float64{4, 4, 4}, constant, 1e-12)
}

func TestForecastContiguity(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(5))
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(2.0, 3.0, 4.0, 3.0, 5.0)))

	for _, horizon := range []int{1, 6, 24} {
		out, err := Forecast(ds, horizon)
		require.NoError(t, err)
		require.Equal(t, 5+horizon, out.Len())

		last := base.Add(4 * time.Hour)
		for k := 1; k <= horizon; k++ {
			i := 4 + k
			assert.True(t, out.IsForecast(i))
			assert.Equal(t, last.Add(time.Duration(k)*time.Hour), out.Time(i))
			require.NotNil(t, out.Value(models.ColumnSurfProxy, i))
			assert.InDelta(t, 8300.0/2401.0, *out.Value(models.ColumnSurfProxy, i), 1e-9)
		}
		for i := 0; i < 5; i++ {
			assert.False(t, out.IsForecast(i))
		}
	}
}

func TestForecastSkipsNullProxies(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(7))
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(nil, 2.0, 3.0, nil, 4.0, 3.0, 5.0)))

	out, err := Forecast(ds, 1)
	require.NoError(t, err)
	assert.InDelta(t, 8300.0/2401.0, *out.Value(models.ColumnSurfProxy, 7), 1e-9)
}

func TestForecastFallsBackToHeight(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(3))
	require.NoError(t, ds.SetColumn(models.ColumnHsFt, vals(3.0, 4.0, nil)))
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(nil, nil, nil)))

	out, err := Forecast(ds, 2)
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())
	assert.InDelta(t, 4.8, *out.Value(models.ColumnSurfProxy, 3), 1e-9)
	assert.InDelta(t, 4.8, *out.Value(models.ColumnSurfProxy, 4), 1e-9)
	assert.Nil(t, out.Value(models.ColumnHsFt, 4))
}

func TestForecastClipsNegativeHeightFallback(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(2))
	require.NoError(t, ds.SetColumn(models.ColumnHsFt, vals(-1.0, -0.5)))

	out, err := Forecast(ds, 2)
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())
	for i := 2; i < 4; i++ {
		require.NotNil(t, out.Value(models.ColumnSurfProxy, i))
		assert.Equal(t, 0.0, *out.Value(models.ColumnSurfProxy, i))
	}
}

func TestForecastHeightOnlyAddsProxyColumn(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(1))
	require.NoError(t, ds.SetColumn(models.ColumnHsFt, vals(4.0)))

	out, err := Forecast(ds, 1)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Nil(t, out.Value(models.ColumnSurfProxy, 0))
	assert.InDelta(t, 4.8, *out.Value(models.ColumnSurfProxy, 1), 1e-9)
}

func TestForecastWithoutSignalReturnsHistory(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(3))
	require.NoError(t, ds.SetColumn("PRES", vals(1015.0, 1014.0, 1013.0)))

	out, err := Forecast(ds, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
}

func TestForecastNonPositiveHorizon(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(2))
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(2.0, 3.0)))

	for _, h := range []int{0, -3} {
		out, err := Forecast(ds, h)
		require.NoError(t, err)
		assert.Equal(t, 2, out.Len())
	}
}

func TestForecastEmptyDataset(t *testing.T) {
	t.Parallel()

	_, err := Forecast(models.NewDataset(nil), 6)

	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Contains(t, err.Error(), "insufficient data")
}

func TestForecastSortsInput(t *testing.T) {
	t.Parallel()

	// [4, 2, 3] in input order is [2, 3, 4] in time order
	times := []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)}
	ds := models.NewDataset(times)
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(4.0, 2.0, 3.0)))

	out, err := Forecast(ds, 2)
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())

	assert.Equal(t, hourly(3), out.Times()[:3])
	requireValues(t, vals(2.0, 3.0, 4.0), trimTo(out, 3), models.ColumnSurfProxy)

	assert.Equal(t, base.Add(3*time.Hour), out.Time(3))
	assert.Equal(t, base.Add(4*time.Hour), out.Time(4))
	assert.InDelta(t, 136.0/49.0, *out.Value(models.ColumnSurfProxy, 3), 1e-9)
}

func TestForecastOfForecastUsesObservationsOnly(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(hourly(3))
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, vals(2.0, 3.0, 4.0)))

	first, err := Forecast(ds, 2)
	require.NoError(t, err)
	require.Equal(t, 5, first.Len())

	second, err := Forecast(first, 1)
	require.NoError(t, err)
	require.Equal(t, 4, second.Len())

	for i := 0; i < 3; i++ {
		assert.False(t, second.IsForecast(i), "row %d", i)
	}
	assert.True(t, second.IsForecast(3))
	assert.Equal(t, base.Add(3*time.Hour), second.Time(3))
	assert.InDelta(t, 136.0/49.0, *second.Value(models.ColumnSurfProxy, 3), 1e-9)
}

func TestForecastWithOnlyForecastRows(t *testing.T) {
	t.Parallel()

	ds := models.NewDataset(nil)
	require.NoError(t, ds.SetColumn(models.ColumnSurfProxy, nil))
	ds.AppendRow(base, map[string]*float64{models.ColumnSurfProxy: models.Float64(3.0)}, true)

	_, err := Forecast(ds, 1)

	var insufficient *InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestBuildForecastPipeline(t *testing.T) {
	t.Parallel()

	// newest first, as served by NDBC
	times := []time.Time{base.Add(2 * time.Hour), base.Add(time.Hour), base}
	ds := models.NewDataset(times)
	require.NoError(t, ds.SetColumn("WVHT", vals(1.0, 1.0, 1.0)))
	require.NoError(t, ds.SetColumn("DPD", vals(22.0, nil, 3.0)))
	require.NoError(t, ds.SetColumn("WSPD", vals(5.0, 5.0, 5.0)))

	out, err := BuildForecast(ds, 3)
	require.NoError(t, err)
	require.Equal(t, 6, out.Len())

	// Hs = 3.28084 ft; period 3, 3 (filled forward), 22
	requireValues(t, vals(3.5, 3.5, 5.0), trimTo(out, 3), models.ColumnSurfProxy)
	assert.Equal(t, base.Add(5*time.Hour), out.Time(5))
	assert.True(t, out.IsForecast(3))
}

func trimTo(ds *models.Dataset, n int) *models.Dataset {
	out := models.NewDataset(ds.Times()[:n])
	for _, c := range ds.Columns() {
		col, _ := ds.Column(c)
		_ = out.SetColumn(c, col[:n])
	}
	return out
}
