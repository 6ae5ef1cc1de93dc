package forecast

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInferLevels(t *testing.T) {
	cols := []string{"realised", "quantile_P90", "forecast", "quantile_P10", "quantile_P50", "stdev", "quantile_P05"}
	got, err := InferLevels(cols)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	want := []Level{5, 10, 50, 90}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("levels not strictly ascending: %v", got)
		}
	}
}

func TestInferLevels_Errors(t *testing.T) {
	cases := []struct {
		name string
		cols []string
		want error
	}{
		{"single digit", []string{"quantile_P5"}, ErrMalformedColumn},
		{"no P", []string{"quantile_10"}, ErrMalformedColumn},
		{"letters", []string{"quantile_Pab"}, ErrMalformedColumn},
		{"duplicate", []string{"quantile_P10", "quantile_P10"}, ErrDuplicateLevel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := InferLevels(c.cols); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestInferLevels_NoQuantiles(t *testing.T) {
	got, err := InferLevels([]string{"realised", "forecast"})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no levels, got %v", got)
	}
	if bands := PairBands(got, MedianRequired); len(bands) != 0 {
		t.Fatalf("expected no bands, got %v", bands)
	}
}

func TestPairBands(t *testing.T) {
	cases := []struct {
		name   string
		levels []Level
		policy MedianPolicy
		want   []Band
	}{
		{
			name:   "symmetric with median",
			levels: []Level{10, 30, 50, 70, 90},
			want:   []Band{{10, 30}, {90, 70}, {30, 70}},
		},
		{
			name:   "wide fan",
			levels: []Level{5, 10, 30, 50, 70, 90, 95},
			want:   []Band{{5, 10}, {10, 30}, {95, 90}, {90, 70}, {30, 70}},
		},
		{
			name:   "no median required policy",
			levels: []Level{25, 75},
			policy: MedianRequired,
			want:   nil,
		},
		{
			name:   "no median bridge policy",
			levels: []Level{25, 75},
			policy: MedianBridge,
			want:   []Band{{25, 75}},
		},
		{
			name:   "median only",
			levels: []Level{50},
			want:   nil,
		},
		{
			name:   "median with one side",
			levels: []Level{10, 30, 50},
			want:   []Band{{10, 30}},
		},
		{
			name:   "single level",
			levels: []Level{90},
			want:   nil,
		},
		{
			name:   "asymmetric",
			levels: []Level{10, 40, 50, 70},
			want:   []Band{{10, 40}, {40, 70}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := PairBands(c.levels, c.policy)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("bands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPairBands_MedianBandOnce(t *testing.T) {
	bands := PairBands([]Level{10, 30, 50, 70, 90}, MedianBridge)
	count := 0
	for _, b := range bands {
		if b == (Band{Outer: 30, Inner: 70}) {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("median band emitted %d times", count)
	}
}

func TestBandLabel(t *testing.T) {
	if got := (Band{Outer: 10, Inner: 20}).Label(); got != "10%-20% Percentile" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Band{Outer: 90, Inner: 70}).Label(); got != "70%-90% Percentile" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestParseMedianPolicy(t *testing.T) {
	for in, want := range map[string]MedianPolicy{"": MedianRequired, "required": MedianRequired, "bridge": MedianBridge} {
		got, err := ParseMedianPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := ParseMedianPolicy("gap"); err == nil {
		t.Fatal("expected error")
	}
}
