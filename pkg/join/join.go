// Package join attaches population values to country features by id.
package join

import (
	"sort"

	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/population"
)

// Stats reports how well the two sources lined up.
type Stats struct {
	Features  int      `json:"features"`
	Matched   int      `json:"matched"`
	Unmatched []string `json:"unmatched,omitempty"`  // feature ids with no record
	UnusedIDs []string `json:"unused_ids,omitempty"` // record ids with no feature
}

// Coverage is the fraction of features that received a population.
func (s Stats) Coverage() float64 {
	if s.Features == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Features)
}

// Join sets Population on every feature whose id is in idx and clears it on
// the rest. It is safe to call repeatedly with different indexes.
func Join(features []*geo.Feature, idx population.Index) Stats {
	stats := Stats{Features: len(features)}
	used := make(map[string]struct{}, len(idx))

	for _, f := range features {
		v, ok := idx.Lookup(f.ID)
		if !ok {
			f.Population = nil
			stats.Unmatched = append(stats.Unmatched, f.ID)
			continue
		}
		f.Population = &v
		used[f.ID] = struct{}{}
		stats.Matched++
	}

	for id := range idx {
		if _, ok := used[id]; !ok {
			stats.UnusedIDs = append(stats.UnusedIDs, id)
		}
	}
	sort.Strings(stats.UnusedIDs)
	return stats
}
