// Package mesh extracts boundary lines from a set of country polygons.
//
// An edge (a segment between two consecutive ring vertices) belongs to
// every feature whose rings contain it in either direction. [Mesh] keeps
// the edges whose owners satisfy a [Filter] and chains them into lines, so
// a border shared by two countries is drawn once.
package mesh

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/popmap/pkg/geo"
)

// Filter decides whether an edge shared by a and b is kept. Edges owned by
// a single feature are offered with a == b.
type Filter func(a, b *geo.Feature) bool

// Interior keeps edges between two different features, dropping coastlines.
func Interior(a, b *geo.Feature) bool { return a.ID != b.ID }

// Exterior keeps edges owned by one feature only.
func Exterior(a, b *geo.Feature) bool { return a == b }

// quantum is the vertex snapping grid in degrees.
const quantum = 1e-6

type vertex [2]int64

func snap(p orb.Point) vertex {
	return vertex{int64(math.Round(p[0] / quantum)), int64(math.Round(p[1] / quantum))}
}

type edgeKey [2]vertex

func keyOf(a, b vertex) edgeKey {
	if a[0] < b[0] || (a[0] == b[0] && a[1] < b[1]) {
		return edgeKey{a, b}
	}
	return edgeKey{b, a}
}

type edge struct {
	a, b   orb.Point
	owners []int
}

func (e *edge) own(fi int) {
	for _, o := range e.owners {
		if o == fi {
			return
		}
	}
	e.owners = append(e.owners, fi)
}

// Mesh returns the lines formed by edges accepted by filter, in the order
// they were first seen. A nil filter means Interior.
func Mesh(features []*geo.Feature, filter Filter) orb.MultiLineString {
	if filter == nil {
		filter = Interior
	}

	edges := make(map[edgeKey]*edge)
	var order []edgeKey

	for fi, f := range features {
		for _, poly := range f.Polygons() {
			for _, ring := range poly {
				for i := 1; i < len(ring); i++ {
					va, vb := snap(ring[i-1]), snap(ring[i])
					if va == vb {
						continue
					}
					k := keyOf(va, vb)
					e, ok := edges[k]
					if !ok {
						e = &edge{a: ring[i-1], b: ring[i]}
						edges[k] = e
						order = append(order, k)
					}
					e.own(fi)
				}
			}
		}
	}

	var out orb.MultiLineString
	var cur orb.LineString
	flush := func() {
		if len(cur) >= 2 {
			out = append(out, cur)
		}
		cur = nil
	}

	for _, k := range order {
		e := edges[k]
		if !accept(features, e.owners, filter) {
			flush()
			continue
		}
		if n := len(cur); n > 0 {
			last := snap(cur[n-1])
			switch last {
			case snap(e.a):
				cur = append(cur, e.b)
				continue
			case snap(e.b):
				cur = append(cur, e.a)
				continue
			}
			flush()
		}
		cur = orb.LineString{e.a, e.b}
	}
	flush()
	return out
}

func accept(features []*geo.Feature, owners []int, filter Filter) bool {
	if len(owners) == 1 {
		f := features[owners[0]]
		return filter(f, f)
	}
	for i := 0; i < len(owners); i++ {
		for j := i + 1; j < len(owners); j++ {
			if filter(features[owners[i]], features[owners[j]]) {
				return true
			}
		}
	}
	return false
}
