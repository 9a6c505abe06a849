package models

import (
	"fmt"
	"sort"
	"time"
)

// Raw NDBC realtime2 field names
const (
	FieldWaveHeight    = "WVHT" // significant wave height, metres
	FieldDominantPer   = "DPD"  // dominant wave period, seconds
	FieldAveragePer    = "APD"  // average wave period, seconds
	FieldMeanDirection = "MWD"  // mean wave direction, degrees true
	FieldWindSpeed     = "WSPD" // wind speed, m/s
)

// Derived column names of the output table
const (
	ColumnTimeUTC    = "time_utc"
	ColumnHsFt       = "Hs_ft"
	ColumnTpS        = "Tp_s"
	ColumnWindMph    = "wind_mph"
	ColumnWindKt     = "wind_kt"
	ColumnSurfProxy  = "surf_face_proxy_ft"
	ColumnIsForecast = "is_forecast"
)

// Dataset is a time-indexed table of nullable numeric columns.
// Every column holds exactly one entry per row; a nil entry is a missing value.
type Dataset struct {
	times    []time.Time
	order    []string
	columns  map[string][]*float64
	forecast []bool
}

// NewDataset creates a dataset with one row per timestamp and no columns.
func NewDataset(times []time.Time) *Dataset {
	t := make([]time.Time, len(times))
	for i, ts := range times {
		t[i] = ts.UTC()
	}
	return &Dataset{
		times:    t,
		columns:  make(map[string][]*float64),
		forecast: make([]bool, len(times)),
	}
}

// Float64 returns a pointer to v, for building nullable values.
func Float64(v float64) *float64 {
	return &v
}

func (d *Dataset) Len() int {
	return len(d.times)
}

func (d *Dataset) Time(i int) time.Time {
	return d.times[i]
}

// Times returns a copy of the row timestamps.
func (d *Dataset) Times() []time.Time {
	out := make([]time.Time, len(d.times))
	copy(out, d.times)
	return out
}

// LastTime returns the latest timestamp, or false on an empty dataset.
func (d *Dataset) LastTime() (time.Time, bool) {
	if len(d.times) == 0 {
		return time.Time{}, false
	}
	last := d.times[0]
	for _, t := range d.times[1:] {
		if t.After(last) {
			last = t
		}
	}
	return last, true
}

// Columns returns the column names in insertion order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]*float64, bool) {
	col, ok := d.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]*float64, len(col))
	copy(out, col)
	return out, true
}

// Value returns the value at row i of the named column, nil when missing or absent.
func (d *Dataset) Value(name string, i int) *float64 {
	col, ok := d.columns[name]
	if !ok {
		return nil
	}
	return col[i]
}

// SetColumn adds or replaces a column. The slice must have one entry per row.
func (d *Dataset) SetColumn(name string, values []*float64) error {
	if len(values) != len(d.times) {
		return fmt.Errorf("column %s has %d values, dataset has %d rows", name, len(values), len(d.times))
	}
	if _, exists := d.columns[name]; !exists {
		d.order = append(d.order, name)
	}
	col := make([]*float64, len(values))
	copy(col, values)
	d.columns[name] = col
	return nil
}

func (d *Dataset) IsForecast(i int) bool {
	return d.forecast[i]
}

// AppendRow adds a row. Columns missing from values are null for that row.
func (d *Dataset) AppendRow(t time.Time, values map[string]*float64, isForecast bool) {
	d.times = append(d.times, t.UTC())
	d.forecast = append(d.forecast, isForecast)
	for _, name := range d.order {
		d.columns[name] = append(d.columns[name], values[name])
	}
}

// Clone returns a deep copy of the dataset's slices. Values are shared
// pointers and are never written through.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		times:    d.Times(),
		order:    d.Columns(),
		columns:  make(map[string][]*float64, len(d.columns)),
		forecast: make([]bool, len(d.forecast)),
	}
	copy(out.forecast, d.forecast)
	for name := range d.columns {
		out.columns[name], _ = d.Column(name)
	}
	return out
}

// SortedByTime returns a copy ordered by ascending timestamp. Rows sharing a
// timestamp are collapsed to the first one in input order.
func (d *Dataset) SortedByTime() *Dataset {
	idx := make([]int, len(d.times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return d.times[idx[a]].Before(d.times[idx[b]])
	})

	keep := make([]int, 0, len(idx))
	for _, i := range idx {
		if len(keep) > 0 && d.times[keep[len(keep)-1]].Equal(d.times[i]) {
			continue
		}
		keep = append(keep, i)
	}
	return d.selectRows(keep)
}

// Observed returns a copy holding only the rows not flagged as forecast.
func (d *Dataset) Observed() *Dataset {
	keep := make([]int, 0, len(d.times))
	for i, f := range d.forecast {
		if !f {
			keep = append(keep, i)
		}
	}
	return d.selectRows(keep)
}

func (d *Dataset) selectRows(rows []int) *Dataset {
	times := make([]time.Time, len(rows))
	forecast := make([]bool, len(rows))
	for j, i := range rows {
		times[j] = d.times[i]
		forecast[j] = d.forecast[i]
	}
	out := &Dataset{
		times:    times,
		order:    d.Columns(),
		columns:  make(map[string][]*float64, len(d.columns)),
		forecast: forecast,
	}
	for name, col := range d.columns {
		sel := make([]*float64, len(rows))
		for j, i := range rows {
			sel[j] = col[i]
		}
		out.columns[name] = sel
	}
	return out
}
