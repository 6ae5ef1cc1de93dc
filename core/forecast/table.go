package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column names used at the table boundary.
const (
	ColumnIndex    = "datetime"
	ColumnRealized = "realised"
	ColumnForecast = "forecast"
	// QuantilePrefix marks a quantile column. The two trailing digits carry the percentile.
	QuantilePrefix = "quantile_P"
)

var (
	ErrMalformedColumn = errors.New("malformed quantile column")
	ErrDuplicateLevel  = errors.New("duplicate quantile level")
	ErrIndexOrder      = errors.New("index not strictly increasing")
	ErrLengthMismatch  = errors.New("series length mismatch")
	ErrMissingColumn   = errors.New("missing column")
)

// Level is a percentile in [0,100].
type Level int

// Median is the 50th percentile.
const Median Level = 50

// Distance returns |l - 50|.
func (l Level) Distance() int {
	d := int(l) - int(Median)
	if d < 0 {
		return -d
	}
	return d
}

// Column returns the quantile column name for the level.
func (l Level) Column() string { return fmt.Sprintf("%s%02d", QuantilePrefix, int(l)) }

func (l Level) String() string { return strconv.Itoa(int(l)) }

// Series holds one value per index entry. Missing values are NaN.
type Series []float64

// Column is an auxiliary column carried through the table untouched.
type Column struct {
	Name   string
	Values Series
}

// Table is a time-indexed forecast table. Quantile series are keyed by level so
// consumers never decode column names themselves.
type Table struct {
	Index     []time.Time
	Realized  Series
	Forecast  Series
	Quantiles map[Level]Series
	// Extra keeps unrecognised columns in their original order.
	Extra []Column
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Index) }

// Levels returns the quantile levels present in the table, ascending.
func (t *Table) Levels() []Level {
	levels := make([]Level, 0, len(t.Quantiles))
	for l := range t.Quantiles {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

// Columns lists the value columns in table order: realised, forecast, quantiles
// ascending, then extra columns.
func (t *Table) Columns() []string {
	cols := []string{ColumnRealized, ColumnForecast}
	for _, l := range t.Levels() {
		cols = append(cols, l.Column())
	}
	for _, c := range t.Extra {
		cols = append(cols, c.Name)
	}
	return cols
}

// Values returns the series stored under the column name.
func (t *Table) Values(name string) (Series, bool) {
	switch name {
	case ColumnRealized:
		return t.Realized, true
	case ColumnForecast:
		return t.Forecast, true
	}
	if l, ok, err := ParseQuantileColumn(name); err == nil && ok {
		s, found := t.Quantiles[l]
		return s, found
	}
	for _, c := range t.Extra {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Validate checks that the index is strictly increasing and every series has
// one value per index entry.
func (t *Table) Validate() error {
	for i := 1; i < len(t.Index); i++ {
		if !t.Index[i].After(t.Index[i-1]) {
			return fmt.Errorf("%w: row %d (%s) not after %s", ErrIndexOrder, i,
				t.Index[i].Format(time.RFC3339), t.Index[i-1].Format(time.RFC3339))
		}
	}
	n := len(t.Index)
	check := func(name string, s Series) error {
		if len(s) != n {
			return fmt.Errorf("%w: %s has %d values, index has %d", ErrLengthMismatch, name, len(s), n)
		}
		return nil
	}
	if err := check(ColumnRealized, t.Realized); err != nil {
		return err
	}
	if err := check(ColumnForecast, t.Forecast); err != nil {
		return err
	}
	for _, l := range t.Levels() {
		if err := check(l.Column(), t.Quantiles[l]); err != nil {
			return err
		}
	}
	for _, c := range t.Extra {
		if err := check(c.Name, c.Values); err != nil {
			return err
		}
	}
	return nil
}

// ParseQuantileColumn decodes a quantile column name. ok is false for names
// without the quantile prefix. Names carrying the prefix in any other form than
// quantile_P<NN> return ErrMalformedColumn.
func ParseQuantileColumn(name string) (Level, bool, error) {
	if !strings.HasPrefix(name, "quantile") {
		return 0, false, nil
	}
	digits := strings.TrimPrefix(name, QuantilePrefix)
	if len(digits) != 2 || digits == name {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedColumn, name)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false, fmt.Errorf("%w: %q", ErrMalformedColumn, name)
		}
	}
	return Level(int(digits[0]-'0')*10 + int(digits[1]-'0')), true, nil
}

// FromColumns builds a Table from named columns sharing index. Quantile columns
// follow the naming rules of InferLevels.
func FromColumns(index []time.Time, names []string, values []Series) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrLengthMismatch, len(names), len(values))
	}
	levels, err := InferLevels(names)
	if err != nil {
		return nil, err
	}
	t := &Table{Index: index, Quantiles: make(map[Level]Series, len(levels))}
	var haveRealized, haveForecast bool
	for i, name := range names {
		switch l, ok, _ := ParseQuantileColumn(name); {
		case ok:
			t.Quantiles[l] = values[i]
		case name == ColumnRealized:
			t.Realized, haveRealized = values[i], true
		case name == ColumnForecast:
			t.Forecast, haveForecast = values[i], true
		default:
			t.Extra = append(t.Extra, Column{Name: name, Values: values[i]})
		}
	}
	if !haveRealized {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnRealized)
	}
	if !haveForecast {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnForecast)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Valid reports whether v is an observed value.
func Valid(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
