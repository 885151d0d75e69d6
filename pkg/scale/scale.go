// Package scale maps population values to the choropleth palette.
//
// [Threshold] is a step function: n ascending cut points split the number
// line into n+1 buckets, and bucket i is painted with color i. Buckets past
// the end of the palette reuse the last color, so the default table of ten
// thresholds and ten colors paints both the top two buckets the darkest blue.
package scale

import (
	"math"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/popmap/pkg/errors"
)

// DefaultThresholds are the population cut points of the default scale.
var DefaultThresholds = []float64{
	10000,
	100000,
	500000,
	1000000,
	5000000,
	10000000,
	50000000,
	100000000,
	500000000,
	1500000000,
}

// DefaultColors is the light to dark blue palette of the default scale.
var DefaultColors = []string{
	"rgb(247,251,255)",
	"rgb(222,235,247)",
	"rgb(198,219,239)",
	"rgb(158,202,225)",
	"rgb(107,174,214)",
	"rgb(66,146,198)",
	"rgb(33,113,181)",
	"rgb(8,81,156)",
	"rgb(8,48,107)",
	"rgb(3,19,43)",
}

// DefaultUnknown paints features without a population. It is the lowest
// bucket color.
const DefaultUnknown = "rgb(247,251,255)"

// Threshold is an immutable threshold color scale.
type Threshold struct {
	domain  []float64
	colors  []string
	unknown string
}

// Default returns the standard population scale.
func Default() Threshold {
	return Threshold{
		domain:  DefaultThresholds,
		colors:  DefaultColors,
		unknown: DefaultUnknown,
	}
}

// New builds a scale from ascending thresholds and a non-empty palette.
// An empty unknown color falls back to the first palette entry.
func New(thresholds []float64, colors []string, unknown string) (Threshold, error) {
	if len(colors) == 0 {
		return Threshold{}, errors.New(errors.ErrCodeInvalidInput, "scale needs at least one color")
	}
	for i, v := range thresholds {
		if math.IsNaN(v) {
			return Threshold{}, errors.New(errors.ErrCodeInvalidInput, "threshold %d is NaN", i)
		}
		if i > 0 && v <= thresholds[i-1] {
			return Threshold{}, errors.New(errors.ErrCodeInvalidInput,
				"thresholds must be strictly ascending: %v follows %v", v, thresholds[i-1])
		}
	}
	if unknown == "" {
		unknown = colors[0]
	}
	return Threshold{
		domain:  append([]float64(nil), thresholds...),
		colors:  append([]string(nil), colors...),
		unknown: unknown,
	}, nil
}

// Thresholds returns a copy of the cut points.
func (t Threshold) Thresholds() []float64 { return append([]float64(nil), t.domain...) }

// Colors returns a copy of the palette.
func (t Threshold) Colors() []string { return append([]string(nil), t.colors...) }

// Unknown returns the color for missing values.
func (t Threshold) Unknown() string { return t.unknown }

// Bucket returns the index of the bucket v falls into: the number of
// thresholds less than or equal to v. NaN yields -1.
func (t Threshold) Bucket(v float64) int {
	if math.IsNaN(v) {
		return -1
	}
	return sort.Search(len(t.domain), func(i int) bool { return t.domain[i] > v })
}

// ColorOf returns the palette color for v.
func (t Threshold) ColorOf(v float64) string {
	b := t.Bucket(v)
	if b < 0 {
		return t.unknown
	}
	if b >= len(t.colors) {
		b = len(t.colors) - 1
	}
	return t.colors[b]
}

// Color returns the palette color for an optional value. A nil value
// means the feature had no population record and yields Unknown.
func (t Threshold) Color(v *float64) string {
	if v == nil {
		return t.unknown
	}
	return t.ColorOf(*v)
}

// LegendEntry describes the value range painted with one color.
type LegendEntry struct {
	Color string   `json:"color"`
	Min   *float64 `json:"min,omitempty"` // inclusive, nil for unbounded
	Max   *float64 `json:"max,omitempty"` // exclusive, nil for unbounded
	Label string   `json:"label"`
}

// Legend returns one entry per palette color, lowest first. The last entry
// absorbs every bucket the palette cannot tell apart.
func (t Threshold) Legend() []LegendEntry {
	entries := make([]LegendEntry, len(t.colors))
	for i, c := range t.colors {
		e := LegendEntry{Color: c}
		if i > 0 && i-1 < len(t.domain) {
			lo := t.domain[i-1]
			e.Min = &lo
		}
		if i < len(t.colors)-1 && i < len(t.domain) {
			hi := t.domain[i]
			e.Max = &hi
		}
		e.Label = rangeLabel(e.Min, e.Max)
		entries[i] = e
	}
	return entries
}

func rangeLabel(lo, hi *float64) string {
	switch {
	case lo == nil && hi == nil:
		return "all"
	case lo == nil:
		return "< " + FormatPopulation(*hi)
	case hi == nil:
		return "≥ " + FormatPopulation(*lo)
	default:
		return FormatPopulation(*lo) + " to " + FormatPopulation(*hi)
	}
}

// FormatPopulation formats v with thousands separators, e.g. 1,234,567.
func FormatPopulation(v float64) string {
	return humanize.Commaf(v)
}

// FormatPopulationPtr formats an optional value, returning "n/a" for nil.
func FormatPopulationPtr(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatPopulation(*v)
}
