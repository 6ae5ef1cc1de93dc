package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/forecastviz/core/forecast"
)

// timestamp layouts accepted when reading. The first one is used for writing.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// WriteCSV writes the forecast table to w with a datetime index column
// followed by the table columns. Missing values are written as empty fields.
func WriteCSV(w io.Writer, t *forecast.Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	header := append([]string{forecast.ColumnIndex}, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	series := make([]forecast.Series, len(cols))
	for i, c := range cols {
		series[i], _ = t.Values(c)
	}
	rec := make([]string, len(header))
	for row, ts := range t.Index {
		rec[0] = ts.UTC().Format(timeLayouts[0])
		for i, s := range series {
			rec[i+1] = formatValue(s[row])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV or by a pandas index dump.
func ReadCSV(r io.Reader) (*forecast.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty forecast csv")
		}
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("forecast csv needs an index and at least one column, got %v", header)
	}
	names := header[1:]
	values := make([]forecast.Series, len(names))
	var index []time.Time
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		index = append(index, ts)
		for i := range names {
			v, err := parseValue(rec[i+1])
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, names[i], err)
			}
			values[i] = append(values[i], v)
		}
	}
	return forecast.FromColumns(index, names, values)
}

// Record is one table row in JSON form.
type Record struct {
	Time   time.Time          `json:"datetime"`
	Values map[string]float64 `json:"values"`
}

// WriteJSON writes the table as a JSON array of rows. Missing values are omitted.
func WriteJSON(w io.Writer, t *forecast.Table) error {
	cols := t.Columns()
	recs := make([]Record, len(t.Index))
	for row, ts := range t.Index {
		vals := make(map[string]float64, len(cols))
		for _, c := range cols {
			s, _ := t.Values(c)
			if forecast.Valid(s[row]) {
				vals[c] = s[row]
			}
		}
		recs[row] = Record{Time: ts.UTC(), Values: vals}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(recs)
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
