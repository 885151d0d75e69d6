package projection

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Path renders geometry in degrees as SVG path data through a Projection.
type Path struct {
	proj *Projection
}

// NewPath returns a path generator bound to p.
func NewPath(p *Projection) *Path {
	return &Path{proj: p}
}

// Projection returns the bound projection.
func (pa *Path) Projection() *Projection { return pa.proj }

// D returns the path data for g, or "" if g draws nothing. Points are not
// drawn.
func (pa *Path) D(g orb.Geometry) string {
	switch g := g.(type) {
	case orb.Ring:
		return PolygonsD(pa.proj.MultiPolygon(orb.MultiPolygon{{g}}))
	case orb.Polygon:
		return PolygonsD(pa.proj.MultiPolygon(orb.MultiPolygon{g}))
	case orb.MultiPolygon:
		return PolygonsD(pa.proj.MultiPolygon(g))
	case orb.LineString:
		return LinesD(pa.proj.MultiLineString(orb.MultiLineString{g}))
	case orb.MultiLineString:
		return LinesD(pa.proj.MultiLineString(g))
	case orb.Collection:
		var sb strings.Builder
		for _, sub := range g {
			sb.WriteString(pa.D(sub))
		}
		return sb.String()
	default:
		return ""
	}
}

// PolygonsD formats already projected polygons. Every ring becomes a closed
// subpath.
func PolygonsD(mp orb.MultiPolygon) string {
	var sb strings.Builder
	for _, poly := range mp {
		for _, ring := range poly {
			pts := openRing(ring)
			if len(pts) < 2 {
				continue
			}
			writePoints(&sb, pts)
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}

// LinesD formats already projected lines as open subpaths.
func LinesD(ml orb.MultiLineString) string {
	var sb strings.Builder
	for _, ls := range ml {
		if len(ls) < 2 {
			continue
		}
		writePoints(&sb, ls)
	}
	return sb.String()
}

func writePoints(sb *strings.Builder, pts []orb.Point) {
	for i, p := range pts {
		if i == 0 {
			sb.WriteByte('M')
		} else {
			sb.WriteByte('L')
		}
		sb.WriteString(FormatCoord(p[0]))
		sb.WriteByte(',')
		sb.WriteString(FormatCoord(p[1]))
	}
}

// FormatCoord rounds to three decimals and drops trailing zeros.
func FormatCoord(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
