// Package projection maps longitude/latitude geometry onto a drawing surface.
//
// The only projection provided is Robinson, using the coefficient table of
// d3-geo-projection so that output matches maps drawn with d3. A
// [Projection] applies, in order: a spherical rotation, a cut along the
// rotated antimeridian, the raw projection, and a scale and translate into
// surface pixels (y grows downward).
//
// Adaptive resampling is not performed. Great-circle segments are drawn as
// straight lines in projected space, except boundary edges introduced by
// clipping, which are densified to follow the curved map outline.
package projection

import (
	"math"

	"github.com/paulmach/orb"
)

// Defaults for the population map.
const (
	DefaultScale = 100
)

// DefaultRotate centres the map slightly east of Greenwich so that the cut
// falls in the Pacific.
var DefaultRotate = [3]float64{352, 0, 0}

// RawFunc is a raw projection taking radians and returning unscaled
// planar coordinates with y pointing north.
type RawFunc func(lambda, phi float64) (x, y float64)

// Projection is configured once per render and is safe for concurrent use
// after construction.
type Projection struct {
	raw       RawFunc
	scale     float64
	translate [2]float64
	rotate    [3]float64
	rot       rotation
}

// Option configures a Projection.
type Option func(*Projection)

// WithScale sets the scale factor.
func WithScale(k float64) Option {
	return func(p *Projection) { p.scale = k }
}

// WithTranslate sets the surface position of the projection centre.
func WithTranslate(x, y float64) Option {
	return func(p *Projection) { p.translate = [2]float64{x, y} }
}

// WithRotate sets the three-axis rotation in degrees (lambda, phi, gamma).
func WithRotate(r [3]float64) Option {
	return func(p *Projection) { p.rotate = r }
}

// WithRaw replaces the raw projection.
func WithRaw(raw RawFunc) Option {
	return func(p *Projection) { p.raw = raw }
}

// New returns a Robinson projection with scale 100, rotation [352, 0, 0]
// and translate [480, 250], overridden by opts.
func New(opts ...Option) *Projection {
	p := &Projection{
		raw:       Robinson,
		scale:     DefaultScale,
		translate: [2]float64{480, 250},
		rotate:    DefaultRotate,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.rot = newRotation(radians(p.rotate[0]), radians(p.rotate[1]), radians(p.rotate[2]))
	return p
}

func (p *Projection) Scale() float64 { return p.scale }

func (p *Projection) Translate() [2]float64 { return p.translate }

func (p *Projection) RotateAngles() [3]float64 { return p.rotate }

// Rotate applies the projection's rotation to a point in degrees.
func (p *Projection) Rotate(lon, lat float64) (float64, float64) {
	l, f := p.rot(radians(lon), radians(lat))
	return degrees(l), degrees(f)
}

// Point projects a point in degrees to surface coordinates. No clipping is
// applied.
func (p *Projection) Point(lon, lat float64) orb.Point {
	l, f := p.rot(radians(lon), radians(lat))
	return p.planar(l, f)
}

// planar projects an already rotated point in radians.
func (p *Projection) planar(lambda, phi float64) orb.Point {
	x, y := p.raw(lambda, phi)
	return orb.Point{p.translate[0] + p.scale*x, p.translate[1] - p.scale*y}
}

func (p *Projection) rotated(pt orb.Point) orb.Point {
	l, f := p.rot(radians(pt[0]), radians(pt[1]))
	return orb.Point{degrees(l), degrees(f)}
}

func (p *Projection) project(pt orb.Point) orb.Point {
	return p.planar(radians(pt[0]), radians(pt[1]))
}

// MultiPolygon rotates, clips and projects polygons given in degrees.
func (p *Projection) MultiPolygon(mp orb.MultiPolygon) orb.MultiPolygon {
	var out orb.MultiPolygon
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		rotated := make(orb.Polygon, len(poly))
		for i, ring := range poly {
			r := make(orb.Ring, len(ring))
			for j, pt := range ring {
				r[j] = p.rotated(pt)
			}
			rotated[i] = r
		}
		for _, piece := range clipPolygon(rotated) {
			out = append(out, p.projectPolygon(piece))
		}
	}
	return out
}

// MultiLineString rotates, cuts and projects lines given in degrees.
func (p *Projection) MultiLineString(ml orb.MultiLineString) orb.MultiLineString {
	var out orb.MultiLineString
	for _, ls := range ml {
		rotated := make(orb.LineString, len(ls))
		for i, pt := range ls {
			rotated[i] = p.rotated(pt)
		}
		for _, piece := range clipLine(rotated) {
			projected := make(orb.LineString, len(piece))
			for i, pt := range piece {
				projected[i] = p.project(pt)
			}
			out = append(out, projected)
		}
	}
	return out
}

func (p *Projection) projectPolygon(poly orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		r := make(orb.Ring, len(ring))
		for j, pt := range ring {
			r[j] = p.project(pt)
		}
		out[i] = r
	}
	return out
}

// Robinson coefficients, one row per 5 degrees of latitude starting at -5.
// The second column is multiplied by robinsonY at init.
var robinsonK = [20][2]float64{
	{0.9986, -0.062},
	{1.0000, 0.0000},
	{0.9986, 0.0620},
	{0.9954, 0.1240},
	{0.9900, 0.1860},
	{0.9822, 0.2480},
	{0.9730, 0.3100},
	{0.9600, 0.3720},
	{0.9427, 0.4340},
	{0.9216, 0.4958},
	{0.8962, 0.5571},
	{0.8679, 0.6176},
	{0.8350, 0.6769},
	{0.7986, 0.7346},
	{0.7597, 0.7903},
	{0.7186, 0.8435},
	{0.6732, 0.8936},
	{0.6213, 0.9394},
	{0.5722, 0.9761},
	{0.5322, 1.0000},
}

const robinsonY = 1.593415793900743

func init() {
	for i := range robinsonK {
		robinsonK[i][1] *= robinsonY
	}
}

// Robinson is the raw Robinson projection.
func Robinson(lambda, phi float64) (float64, float64) {
	i := math.Min(18, math.Abs(phi)*36/math.Pi)
	i0 := int(math.Floor(i))
	di := i - float64(i0)

	a := robinsonK[i0]
	b := robinsonK[i0+1]
	c := robinsonK[min(19, i0+2)]

	x := lambda * (b[0] + di*(c[0]-a[0])/2 + di*di*(c[0]-2*b[0]+a[0])/2)
	y := b[1] + di*(c[1]-a[1])/2 + di*di*(c[1]-2*b[1]+a[1])/2
	if phi < 0 {
		y = -y
	}
	return x, y
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
