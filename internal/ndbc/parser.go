package ndbc

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bbernstein/surfcast/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// HeaderSearchLines bounds how far from the top the header may appear.
	HeaderSearchLines = 80

	commentMarker = "#"
)

// Parser converts NDBC realtime2 text into a dataset.
type Parser struct {
	vocab             Vocabulary
	headerSearchLines int
}

// NewParser creates a parser recognising headers by the given vocabulary.
// A nil vocabulary falls back to DefaultVocabulary.
func NewParser(vocab Vocabulary) *Parser {
	if vocab == nil {
		vocab = DefaultVocabulary
	}
	return &Parser{
		vocab:             vocab,
		headerSearchLines: HeaderSearchLines,
	}
}

// Parse parses feed text with the default vocabulary.
func Parse(text string) (*models.Dataset, error) {
	return NewParser(DefaultVocabulary).Parse(text)
}

// timeColumns holds header positions of the date/time fields, -1 when absent.
type timeColumns struct {
	year, month, day, hour, minute int
}

func (c timeColumns) contains(i int) bool {
	return i == c.year || i == c.month || i == c.day || i == c.hour || i == c.minute
}

// Parse locates the header, collects the rows matching its width and builds
// a dataset with a UTC timestamp per row and nullable numeric columns.
func (p *Parser) Parse(text string) (*models.Dataset, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewFormatError("empty feed")
	}

	lines := strings.Split(text, "\n")
	headerIdx, header, cols, ok := p.findHeader(lines)
	if !ok {
		return nil, NewFormatError("could not find header line")
	}

	var rows [][]string
	skipped := 0
	for _, ln := range lines[headerIdx+1:] {
		s := strings.TrimSpace(ln)
		if s == "" || strings.HasPrefix(s, commentMarker) {
			continue
		}
		toks := strings.Fields(s)
		if len(toks) != len(header) {
			skipped++
			continue
		}
		rows = append(rows, toks)
	}
	if len(rows) == 0 {
		return nil, NewFormatError("no data rows found after header")
	}

	// Data columns in header order, first occurrence of a name wins.
	type dataColumn struct {
		name  string
		index int
	}
	var dataCols []dataColumn
	seen := make(map[string]bool)
	for i, name := range header {
		if cols.contains(i) || seen[name] {
			continue
		}
		seen[name] = true
		dataCols = append(dataCols, dataColumn{name: name, index: i})
	}

	times := make([]time.Time, 0, len(rows))
	values := make([][]*float64, len(dataCols))
	dropped := 0
	for _, toks := range rows {
		ts, ok := parseTimestamp(toks, cols)
		if !ok {
			dropped++
			continue
		}
		times = append(times, ts)
		for j, c := range dataCols {
			values[j] = append(values[j], parseNumber(toks[c.index]))
		}
	}

	ds := models.NewDataset(times)
	for j, c := range dataCols {
		col := values[j]
		if col == nil {
			col = []*float64{}
		}
		if err := ds.SetColumn(c.name, col); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Int("rows", ds.Len()).
		Int("skipped_ragged", skipped).
		Int("dropped_bad_time", dropped).
		Int("header_line", headerIdx).
		Msg("Parsed NDBC feed")

	return ds, nil
}

func (p *Parser) findHeader(lines []string) (int, []string, timeColumns, bool) {
	limit := p.headerSearchLines
	if limit > len(lines) {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		s := strings.TrimSpace(lines[i])
		if s == "" {
			continue
		}
		toks := strings.Fields(strings.TrimLeft(s, commentMarker))
		cols, hasDate := locateTimeColumns(toks)
		if !hasDate {
			continue
		}
		for _, t := range toks {
			if p.vocab.Contains(t) {
				return i, toks, cols, true
			}
		}
	}
	return -1, nil, timeColumns{}, false
}

// locateTimeColumns finds YY|YYYY, MM, DD, hh|HH and the optional mm.
func locateTimeColumns(toks []string) (timeColumns, bool) {
	pos := make(map[string]int, len(toks))
	for i := len(toks) - 1; i >= 0; i-- {
		pos[toks[i]] = i
	}
	find := func(names ...string) int {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := timeColumns{
		year:   find("YY", "YYYY"),
		month:  find("MM"),
		day:    find("DD"),
		hour:   find("hh", "HH"),
		minute: find("mm"),
	}
	ok := cols.year >= 0 && cols.month >= 0 && cols.day >= 0 && cols.hour >= 0
	return cols, ok
}

// parseTimestamp composes a UTC time from the row's date fields. Two-digit
// years are taken as 20xx. Out-of-range calendar values fail.
func parseTimestamp(toks []string, cols timeColumns) (time.Time, bool) {
	year, ok := parseInt(toks[cols.year])
	if !ok || year < 0 {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	month, okM := parseInt(toks[cols.month])
	day, okD := parseInt(toks[cols.day])
	hour, okH := parseInt(toks[cols.hour])
	if !okM || !okD || !okH {
		return time.Time{}, false
	}
	minute := 0
	if cols.minute >= 0 {
		if minute, ok = parseInt(toks[cols.minute]); !ok {
			return time.Time{}, false
		}
	}

	if month < 1 || month > 12 || day < 1 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func parseInt(s string) (int, bool) {
	v := parseNumber(s)
	if v == nil || *v != math.Trunc(*v) || math.Abs(*v) > 1e6 {
		return 0, false
	}
	return int(*v), true
}

// parseNumber coerces a token to a number; anything unparseable is null.
func parseNumber(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
