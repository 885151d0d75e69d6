// Package choropleth lays out a population map on a drawing surface.
//
// [Build] takes joined features and produces a [Map]: every feature
// projected to surface coordinates, colored by the threshold scale, plus
// the projected border mesh. The Map is format independent; sinks turn it
// into SVG, JSON or terminal output.
package choropleth

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/mesh"
	"github.com/matzehuels/popmap/pkg/projection"
	"github.com/matzehuels/popmap/pkg/scale"
)

// Margin is reserved space around the map, in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Surface is the drawing area. The map itself occupies the area inside the
// margins.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// DefaultSurface is 960x500 with the right 400 pixels reserved, leaving a
// 560x500 map.
func DefaultSurface() Surface {
	return Surface{Width: 960, Height: 500, Margin: Margin{Right: 400}}
}

// Inner returns the width and height inside the margins.
func (s Surface) Inner() (float64, float64) {
	return s.Width - s.Margin.Left - s.Margin.Right, s.Height - s.Margin.Top - s.Margin.Bottom
}

// Validate reports non-finite sizes and margins that leave no room for the map.
func (s Surface) Validate() error {
	w, h := s.Inner()
	if math.IsNaN(w) || math.IsNaN(h) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return errors.New(errors.ErrCodeInvalidInput,
			"surface %vx%v with margins %+v is not finite", s.Width, s.Height, s.Margin)
	}
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"surface %vx%v with margins %+v leaves no drawing area", s.Width, s.Height, s.Margin)
	}
	return nil
}

// Country is one drawn feature.
type Country struct {
	Feature *geo.Feature
	Color   string
	Bucket  int              // -1 when the population is unknown
	Shape   orb.MultiPolygon // surface coordinates
	Bound   orb.Bound
	D       string // SVG path data
}

// Contains reports whether the surface point lies inside the shape.
func (c *Country) Contains(p orb.Point) bool {
	if len(c.Shape) == 0 || !c.Bound.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(c.Shape, p)
}

// Map is a laid out choropleth.
type Map struct {
	Surface    Surface
	Countries  []*Country
	Mesh       orb.MultiLineString // surface coordinates
	MeshD      string
	Scale      scale.Threshold
	Projection *projection.Projection
}

// Option configures Build.
type Option func(*builder)

type builder struct {
	surface    Surface
	scale      scale.Threshold
	projScale  float64
	rotate     [3]float64
	meshFilter mesh.Filter
	noMesh     bool
}

func WithSurface(s Surface) Option         { return func(b *builder) { b.surface = s } }
func WithScale(t scale.Threshold) Option   { return func(b *builder) { b.scale = t } }
func WithProjectionScale(k float64) Option { return func(b *builder) { b.projScale = k } }
func WithRotate(r [3]float64) Option       { return func(b *builder) { b.rotate = r } }
func WithMeshFilter(f mesh.Filter) Option  { return func(b *builder) { b.meshFilter = f } }
func WithoutMesh() Option                  { return func(b *builder) { b.noMesh = true } }

func newBuilder(opts ...Option) builder {
	b := builder{
		surface:    DefaultSurface(),
		scale:      scale.Default(),
		projScale:  projection.DefaultScale,
		rotate:     projection.DefaultRotate,
		meshFilter: mesh.Interior,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Build lays out features, which should already be joined. Features are
// drawn in input order, one Country each, including features whose
// geometry draws nothing.
func Build(features []*geo.Feature, opts ...Option) (*Map, error) {
	b := newBuilder(opts...)
	if err := b.surface.Validate(); err != nil {
		return nil, err
	}

	w, h := b.surface.Inner()
	proj := projection.New(
		projection.WithScale(b.projScale),
		projection.WithRotate(b.rotate),
		projection.WithTranslate(w/2, h/2),
	)

	m := &Map{
		Surface:    b.surface,
		Countries:  make([]*Country, 0, len(features)),
		Scale:      b.scale,
		Projection: proj,
	}

	for _, f := range features {
		c := &Country{
			Feature: f,
			Color:   b.scale.Color(f.Population),
			Bucket:  -1,
		}
		if f.Population != nil {
			c.Bucket = b.scale.Bucket(*f.Population)
		}
		c.Shape = proj.MultiPolygon(f.Polygons())
		if len(c.Shape) > 0 {
			c.Bound = c.Shape.Bound()
		}
		c.D = projection.PolygonsD(c.Shape)
		m.Countries = append(m.Countries, c)
	}

	if !b.noMesh {
		m.Mesh = proj.MultiLineString(mesh.Mesh(features, b.meshFilter))
		m.MeshD = projection.LinesD(m.Mesh)
	}
	return m, nil
}

// Empty returns a map with no countries, used when loading fails.
func Empty(s Surface) *Map {
	return &Map{Surface: s, Scale: scale.Default()}
}

// Country returns the drawn feature with the given id, or nil.
func (m *Map) Country(id string) *Country {
	for _, c := range m.Countries {
		if c.Feature.ID == id {
			return c
		}
	}
	return nil
}

// HitTest returns the country under a surface point, or nil. Later
// countries are drawn on top, so they win.
func (m *Map) HitTest(x, y float64) *Country {
	p := orb.Point{x, y}
	for i := len(m.Countries) - 1; i >= 0; i-- {
		if m.Countries[i].Contains(p) {
			return m.Countries[i]
		}
	}
	return nil
}

// Features returns the drawn features in draw order.
func (m *Map) Features() []*geo.Feature {
	fs := make([]*geo.Feature, len(m.Countries))
	for i, c := range m.Countries {
		fs[i] = c.Feature
	}
	return fs
}
