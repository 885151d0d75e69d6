package scale

import (
	"math"
	"testing"

	"github.com/matzehuels/popmap/pkg/errors"
)

func TestDefaultTable(t *testing.T) {
	s := Default()
	if got := len(s.Thresholds()); got != 10 {
		t.Errorf("len(Thresholds) = %d, want 10", got)
	}
	if got := len(s.Colors()); got != 10 {
		t.Errorf("len(Colors) = %d, want 10", got)
	}
	if s.Unknown() != "rgb(247,251,255)" {
		t.Errorf("Unknown() = %q", s.Unknown())
	}
}

func TestBucket(t *testing.T) {
	s := Default()
	tests := []struct {
		v    float64
		want int
	}{
		{0, 0},
		{9999, 0},
		{10000, 1},
		{99999, 1},
		{100000, 2},
		{67000000, 7},
		{331000000, 8},
		{1499999999, 9},
		{1500000000, 10},
		{2000000000, 10},
		{-5, 0},
		{math.Inf(1), 10},
		{math.NaN(), -1},
	}
	for _, tt := range tests {
		if got := s.Bucket(tt.v); got != tt.want {
			t.Errorf("Bucket(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestColorOf(t *testing.T) {
	s := Default()
	tests := []struct {
		v    float64
		want string
	}{
		{9999, DefaultColors[0]},
		{10000, DefaultColors[1]},
		{67000000, "rgb(8,81,156)"},
		{331000000, "rgb(8,48,107)"},
		{1500000000, DefaultColors[9]},
		{2000000000, DefaultColors[9]},
		{math.NaN(), DefaultUnknown},
	}
	for _, tt := range tests {
		if got := s.ColorOf(tt.v); got != tt.want {
			t.Errorf("ColorOf(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestColorMonotonic(t *testing.T) {
	s := Default()
	prev := -1
	for v := 1.0; v < 3e9; v *= 1.7 {
		b := s.Bucket(v)
		if b < prev {
			t.Fatalf("Bucket(%v) = %d after %d", v, b, prev)
		}
		prev = b
	}
}

func TestColorNil(t *testing.T) {
	s := Default()
	if got := s.Color(nil); got != DefaultUnknown {
		t.Errorf("Color(nil) = %q, want %q", got, DefaultUnknown)
	}
	v := 67e6
	if got := s.Color(&v); got != "rgb(8,81,156)" {
		t.Errorf("Color(67e6) = %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		colors     []string
		wantErr    bool
	}{
		{"valid", []float64{1, 2}, []string{"a", "b", "c"}, false},
		{"no thresholds", nil, []string{"a"}, false},
		{"no colors", []float64{1}, nil, true},
		{"descending", []float64{2, 1}, []string{"a"}, true},
		{"equal", []float64{1, 1}, []string{"a"}, true},
		{"nan", []float64{math.NaN()}, []string{"a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.thresholds, tt.colors, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want INVALID_INPUT", errors.GetCode(err))
			}
		})
	}
}

func TestNewCopiesInput(t *testing.T) {
	th := []float64{10, 20}
	cs := []string{"a", "b", "c"}
	s, err := New(th, cs, "u")
	if err != nil {
		t.Fatal(err)
	}
	th[0] = 100
	cs[0] = "z"
	if s.ColorOf(5) != "a" {
		t.Errorf("scale aliased caller slices")
	}
	if s.Unknown() != "u" {
		t.Errorf("Unknown() = %q, want u", s.Unknown())
	}
}

func TestLegend(t *testing.T) {
	entries := Default().Legend()
	if len(entries) != 10 {
		t.Fatalf("len(Legend) = %d, want 10", len(entries))
	}

	first, last := entries[0], entries[9]
	if first.Min != nil || first.Max == nil || *first.Max != 10000 {
		t.Errorf("first entry = %+v", first)
	}
	if first.Label != "< 10,000" {
		t.Errorf("first label = %q", first.Label)
	}
	if last.Max != nil || last.Min == nil || *last.Min != 500000000 {
		t.Errorf("last entry = %+v", last)
	}
	if last.Label != "≥ 500,000,000" {
		t.Errorf("last label = %q", last.Label)
	}
	if entries[3].Label != "500,000 to 1,000,000" {
		t.Errorf("entries[3].Label = %q", entries[3].Label)
	}
	for i, e := range entries {
		if e.Color != DefaultColors[i] {
			t.Errorf("entries[%d].Color = %q", i, e.Color)
		}
	}
}

func TestFormatPopulation(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{67000000, "67,000,000"},
		{1409517397, "1,409,517,397"},
	}
	for _, tt := range tests {
		if got := FormatPopulation(tt.v); got != tt.want {
			t.Errorf("FormatPopulation(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
	if got := FormatPopulationPtr(nil); got != "n/a" {
		t.Errorf("FormatPopulationPtr(nil) = %q, want n/a", got)
	}
}
