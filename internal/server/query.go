package server

import (
	"math"
	"net/url"
	"strconv"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
)

// optionsFromQuery applies per-request overrides to base. Unknown
// parameters are ignored.
func optionsFromQuery(base pipeline.Options, q url.Values) (pipeline.Options, error) {
	opts := base
	floats := []struct {
		name string
		dst  *float64
	}{
		{"width", &opts.Width},
		{"height", &opts.Height},
		{"scale", &opts.Scale},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a finite number", f.name, v)
		}
		*f.dst = n
	}

	bools := []struct {
		name   string
		dst    *bool
		invert bool
	}{
		{"legend", &opts.Legend, false},
		{"refresh", &opts.Refresh, false},
		{"mesh", &opts.NoMesh, true},
		{"tooltips", &opts.NoTooltips, true},
	}
	for _, b := range bools {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a boolean", b.name, v)
		}
		*b.dst = on != b.invert
	}
	return opts, nil
}
