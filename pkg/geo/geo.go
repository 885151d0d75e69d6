// Package geo decodes country boundaries from GeoJSON.
//
// A [Collection] holds one [Feature] per country. Each feature keeps its
// identifier (the join key against population records), a display name and
// its polygonal geometry in longitude/latitude degrees. Population is left
// unset here and is filled in by the join step.
package geo

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/popmap/pkg/errors"
)

// Feature is a single country boundary.
type Feature struct {
	ID         string             // join key, usually an ISO 3166-1 alpha-3 code
	Name       string             // display name, falls back to ID
	Geometry   orb.Geometry       // Polygon or MultiPolygon in degrees
	Properties geojson.Properties // remaining GeoJSON properties
	Population *float64           // nil until joined
}

// Polygons returns the feature geometry as a MultiPolygon. Geometries that
// are not polygonal yield nil.
func (f *Feature) Polygons() orb.MultiPolygon {
	switch g := f.Geometry.(type) {
	case orb.MultiPolygon:
		return g
	case orb.Polygon:
		return orb.MultiPolygon{g}
	case orb.Collection:
		var mp orb.MultiPolygon
		for _, sub := range g {
			mp = append(mp, (&Feature{Geometry: sub}).Polygons()...)
		}
		return mp
	default:
		return nil
	}
}

// HasPopulation reports whether a finite population value was joined.
func (f *Feature) HasPopulation() bool {
	return f.Population != nil
}

// Collection is an ordered set of country features.
type Collection struct {
	Features []*Feature
}

// ByID returns the first feature with the given id, or nil.
func (c *Collection) ByID(id string) *Feature {
	for _, f := range c.Features {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// IDs returns feature ids in collection order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.Features))
	for i, f := range c.Features {
		ids[i] = f.ID
	}
	return ids
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(data []byte) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode geometry")
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.New(errors.ErrCodeParse, "decode geometry: expected FeatureCollection, got %q", fc.Type)
	}

	out := &Collection{Features: make([]*Feature, 0, len(fc.Features))}
	for i, gf := range fc.Features {
		if gf == nil {
			continue
		}
		f := &Feature{
			ID:         NormalizeID(gf.ID),
			Geometry:   gf.Geometry,
			Properties: gf.Properties,
		}
		if f.ID == "" {
			// Some exports carry the key as a property instead of the member.
			f.ID = NormalizeID(gf.Properties["id"])
		}
		if name, ok := gf.Properties["name"].(string); ok && strings.TrimSpace(name) != "" {
			f.Name = name
		} else {
			f.Name = f.ID
		}
		if f.ID == "" && f.Name == "" {
			f.Name = "feature " + strconv.Itoa(i)
		}
		out.Features = append(out.Features, f)
	}
	return out, nil
}

// Read decodes a FeatureCollection from r.
func Read(r io.Reader) (*Collection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read geometry")
	}
	return Decode(data)
}

// NormalizeID converts a GeoJSON id member to its string join key.
// Numbers are formatted without exponent or trailing zeros so that 250 and
// "250" join against the same record.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
