package ndbc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
)

// EncodeCSV writes a dataset as CSV with time_utc first and empty cells for
// missing values. This is the snapshot format read back by DecodeCSV.
func EncodeCSV(w io.Writer, ds *models.Dataset) error {
	cw := csv.NewWriter(w)
	columns := ds.Columns()

	header := append([]string{models.ColumnTimeUTC}, columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < ds.Len(); i++ {
		record[0] = ds.Time(i).Format(models.TimeLayout)
		for j, name := range columns {
			v := ds.Value(name, i)
			if v == nil {
				record[j+1] = ""
				continue
			}
			record[j+1] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a dataset written by EncodeCSV. Rows with an unreadable
// time_utc are dropped and unreadable numbers become null, mirroring Parse.
func DecodeCSV(r io.Reader) (*models.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, NewFormatError("empty snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) == 0 || header[0] != models.ColumnTimeUTC {
		return nil, NewFormatError("snapshot header must start with " + models.ColumnTimeUTC)
	}

	columns := header[1:]
	var times []time.Time
	values := make([][]*float64, len(columns))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot: %w", err)
		}
		if len(rec) != len(header) {
			continue
		}
		t, err := time.Parse(models.TimeLayout, rec[0])
		if err != nil {
			continue
		}
		times = append(times, t)
		for j := range columns {
			values[j] = append(values[j], parseNumber(rec[j+1]))
		}
	}

	ds := models.NewDataset(times)
	for j, name := range columns {
		col := values[j]
		if col == nil {
			col = []*float64{}
		}
		if err := ds.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
