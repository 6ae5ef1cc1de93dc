package forecast

import (
	"fmt"
	"sort"
)

// Band is a region shaded between two quantile levels. Outer is the level
// farther from the median.
type Band struct {
	Outer Level
	Inner Level
}

// Label renders the band range with the two percentages ascending.
func (b Band) Label() string {
	lo, hi := b.Outer, b.Inner
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%d%%-%d%% Percentile", lo, hi)
}

// MedianPolicy decides when the band straddling the median is emitted.
type MedianPolicy int

const (
	// MedianRequired emits the straddling band only when level 50 is present.
	MedianRequired MedianPolicy = iota
	// MedianBridge emits the straddling band whenever both neighbours exist.
	MedianBridge
)

func (p MedianPolicy) String() string {
	switch p {
	case MedianRequired:
		return "required"
	case MedianBridge:
		return "bridge"
	default:
		return fmt.Sprintf("MedianPolicy(%d)", int(p))
	}
}

// ParseMedianPolicy maps a config value to a policy. Empty means MedianRequired.
func ParseMedianPolicy(s string) (MedianPolicy, error) {
	switch s {
	case "", "required":
		return MedianRequired, nil
	case "bridge":
		return MedianBridge, nil
	default:
		return 0, fmt.Errorf("unknown median policy %q", s)
	}
}

// InferLevels extracts quantile levels from column names, ascending. Columns
// without the quantile prefix are ignored.
func InferLevels(columns []string) ([]Level, error) {
	seen := make(map[Level]struct{})
	var levels []Level
	for _, c := range columns {
		l, ok, err := ParseQuantileColumn(c)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[l]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateLevel, l)
		}
		seen[l] = struct{}{}
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels, nil
}

// PairBands pairs adjacent levels into bands, outermost first: the lower side
// walking inward from the smallest level, the upper side walking inward from
// the largest, then the band straddling the median if the policy allows it.
// levels must be ascending and unique.
func PairBands(levels []Level, policy MedianPolicy) []Band {
	var below, above []Level
	hasMedian := false
	for _, l := range levels {
		switch {
		case l < Median:
			below = append(below, l)
		case l > Median:
			above = append(above, l)
		default:
			hasMedian = true
		}
	}

	var bands []Band
	for i := 0; i < len(below)-1; i++ {
		bands = append(bands, Band{Outer: below[i], Inner: below[i+1]})
	}
	for j := len(above) - 1; j > 0; j-- {
		bands = append(bands, Band{Outer: above[j], Inner: above[j-1]})
	}
	if len(below) > 0 && len(above) > 0 && (hasMedian || policy == MedianBridge) {
		bands = append(bands, Band{Outer: below[len(below)-1], Inner: above[0]})
	}
	return bands
}
