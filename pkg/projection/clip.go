package projection

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// boundaryStep is the latitude spacing in degrees of points inserted along
// the cut so that closing edges follow the map outline.
const boundaryStep = 2.0

// Geometry in this file is in rotated degrees. The cut is the meridian at
// longitude ±180.

func side(lon float64) float64 {
	if lon > 0 {
		return 1
	}
	return -1
}

func crosses(a, b orb.Point) bool {
	return math.Abs(b[0]-a[0]) > 180
}

// crossingLat returns the latitude at which the great circle through a and b
// meets the antimeridian.
func crossingLat(a, b orb.Point) float64 {
	l0, p0 := radians(a[0]), radians(a[1])
	l1, p1 := radians(b[0]), radians(b[1])
	s := math.Sin(l0 - l1)
	if math.Abs(s) > 1e-6 {
		cp0, cp1 := math.Cos(p0), math.Cos(p1)
		return degrees(math.Atan((math.Sin(p0)*cp1*math.Sin(l1) - math.Sin(p1)*cp0*math.Sin(l0)) / (cp0 * cp1 * s)))
	}
	return (a[1] + b[1]) / 2
}

// piece is a run of ring points between two crossings. Its first and last
// points lie on the cut.
type piece struct {
	pts       orb.LineString
	startSide float64
	endSide   float64
}

func newPiece(pts orb.LineString) piece {
	return piece{
		pts:       pts,
		startSide: side(pts[0][0]),
		endSide:   side(pts[len(pts)-1][0]),
	}
}

func (pc piece) startLat() float64 { return pc.pts[0][1] }
func (pc piece) endLat() float64   { return pc.pts[len(pc.pts)-1][1] }

func openRing(r orb.Ring) []orb.Point {
	n := len(r)
	if n > 1 && r[0] == r[n-1] {
		n--
	}
	return r[:n]
}

// splitRing cuts a ring at every crossing. It returns nil for rings that
// stay on one side.
func splitRing(ring orb.Ring) []piece {
	pts := openRing(ring)
	n := len(pts)
	if n < 2 {
		return nil
	}
	first := -1
	for i := 0; i < n; i++ {
		if crosses(pts[i], pts[(i+1)%n]) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil
	}

	var pieces []piece
	a, b := pts[first], pts[(first+1)%n]
	lat0 := crossingLat(a, b)
	cur := orb.LineString{{180 * side(b[0]), lat0}, b}
	for k := 1; k < n; k++ {
		a = pts[(first+k)%n]
		b = pts[(first+k+1)%n]
		if crosses(a, b) {
			lat := crossingLat(a, b)
			cur = append(cur, orb.Point{180 * side(a[0]), lat})
			pieces = append(pieces, newPiece(cur))
			cur = orb.LineString{{180 * side(b[0]), lat}, b}
			continue
		}
		cur = append(cur, b)
	}
	cur = append(cur, orb.Point{180 * side(pts[first][0]), lat0})
	return append(pieces, newPiece(cur))
}

// meridian returns points on the cut strictly between two latitudes.
func meridian(s, from, to float64) []orb.Point {
	var pts []orb.Point
	lon := 180 * s
	if to > from {
		for lat := from + boundaryStep; lat < to; lat += boundaryStep {
			pts = append(pts, orb.Point{lon, lat})
		}
	} else {
		for lat := from - boundaryStep; lat > to; lat -= boundaryStep {
			pts = append(pts, orb.Point{lon, lat})
		}
	}
	return pts
}

func meanLat(r orb.Ring) float64 {
	pts := openRing(r)
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p[1]
	}
	return sum / float64(len(pts))
}

// closeThroughPole closes a piece that starts and ends on opposite sides of
// the cut. Such a ring encloses a pole, so it is closed along the cut to the
// pole, across the pole line and back.
func closeThroughPole(pc piece, pole float64) orb.Ring {
	ring := append(orb.Ring(nil), pc.pts...)
	ring = append(ring, meridian(pc.endSide, pc.endLat(), pole)...)
	ring = append(ring,
		orb.Point{180 * pc.endSide, pole},
		orb.Point{180 * pc.startSide, pole},
	)
	ring = append(ring, meridian(pc.startSide, pole, pc.startLat())...)
	return append(ring, ring[0])
}

type cutEnd struct {
	lat   float64
	piece int
	start bool
}

// rejoin stitches pieces back into closed rings. Pieces whose ends share a
// side are linked along the cut by pairing their endpoints in latitude
// order, which is exact for simple rings.
func rejoin(pieces []piece, pole float64) []orb.Ring {
	var rings []orb.Ring
	var local []int
	for i, pc := range pieces {
		if pc.startSide != pc.endSide {
			rings = append(rings, closeThroughPole(pc, pole))
			continue
		}
		local = append(local, i)
	}

	// partner[i] holds, for the end of piece i, the endpoint paired with it.
	partner := make(map[int]cutEnd, len(local))
	for _, s := range []float64{1, -1} {
		var ends []cutEnd
		for _, i := range local {
			if pieces[i].startSide != s {
				continue
			}
			ends = append(ends,
				cutEnd{lat: pieces[i].startLat(), piece: i, start: true},
				cutEnd{lat: pieces[i].endLat(), piece: i},
			)
		}
		sort.SliceStable(ends, func(a, b int) bool { return ends[a].lat < ends[b].lat })
		for k := 0; k+1 < len(ends); k += 2 {
			x, y := ends[k], ends[k+1]
			if !x.start {
				partner[x.piece] = y
			}
			if !y.start {
				partner[y.piece] = x
			}
		}
	}

	used := make(map[int]bool, len(local))
	for _, i := range local {
		if used[i] {
			continue
		}
		s := pieces[i].startSide
		var ring orb.Ring
		j := i
		for {
			used[j] = true
			ring = append(ring, pieces[j].pts...)
			p, ok := partner[j]
			if !ok || !p.start || (p.piece != i && used[p.piece]) {
				ring = append(ring, meridian(s, pieces[j].endLat(), pieces[i].startLat())...)
				break
			}
			ring = append(ring, meridian(s, pieces[j].endLat(), p.lat)...)
			if p.piece == i {
				break
			}
			j = p.piece
		}
		rings = append(rings, append(ring, ring[0]))
	}
	return rings
}

// clipPolygon cuts a rotated polygon along the antimeridian. Holes that
// cross the cut are dropped; the rest are attached to the piece containing
// them.
func clipPolygon(poly orb.Polygon) []orb.Polygon {
	outer := poly[0]
	var out []orb.Polygon
	if pieces := splitRing(outer); pieces == nil {
		out = []orb.Polygon{{outer}}
	} else {
		pole := 90.0
		if meanLat(outer) < 0 {
			pole = -90
		}
		for _, r := range rejoin(pieces, pole) {
			out = append(out, orb.Polygon{r})
		}
	}

	for _, hole := range poly[1:] {
		if len(hole) == 0 || splitRing(hole) != nil {
			continue
		}
		for i := range out {
			if planar.RingContains(out[i][0], hole[0]) {
				out[i] = append(out[i], hole)
				break
			}
		}
	}
	return out
}

// clipLine cuts a rotated line at each antimeridian crossing.
func clipLine(ls orb.LineString) []orb.LineString {
	if len(ls) == 0 {
		return nil
	}
	var out []orb.LineString
	cur := orb.LineString{ls[0]}
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		if crosses(a, b) {
			lat := crossingLat(a, b)
			cur = append(cur, orb.Point{180 * side(a[0]), lat})
			if len(cur) >= 2 {
				out = append(out, cur)
			}
			cur = orb.LineString{{180 * side(b[0]), lat}}
		}
		cur = append(cur, b)
	}
	if len(cur) >= 2 {
		out = append(out, cur)
	}
	return out
}
