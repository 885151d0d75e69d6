// Package population parses tab-separated population tables.
//
// The expected input has a header row naming at least an "id" column and a
// "population" column, in any order. Extra columns (such as "name") are
// ignored. Rows whose population does not parse as a finite number are
// skipped and counted in [Stats].
package population

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/popmap/pkg/errors"
)

// Column names recognised in the header row.
const (
	ColumnID         = "id"
	ColumnPopulation = "population"
	ColumnName       = "name"
)

// Record is one row of the population table.
type Record struct {
	ID         string
	Name       string
	Population float64
}

// Stats summarises a parse.
type Stats struct {
	Rows       int // data rows read, excluding the header
	Records    int // rows that produced a record
	Skipped    int // rows dropped for a missing id or unparsable population
	Duplicates int // ids seen more than once; the last row wins in an Index
}

// ParseTSV reads a population table from r.
func ParseTSV(r io.Reader) ([]Record, Stats, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var stats Stats

	header, err := cr.Read()
	if err == io.EOF {
		return nil, stats, errors.New(errors.ErrCodeParse, "population table is empty")
	}
	if err != nil {
		return nil, stats, errors.Wrap(errors.ErrCodeParse, err, "read population header")
	}

	idCol, popCol, nameCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColumnID:
			idCol = i
		case ColumnPopulation:
			popCol = i
		case ColumnName:
			nameCol = i
		}
	}
	if idCol < 0 || popCol < 0 {
		return nil, stats, errors.New(errors.ErrCodeParse,
			"population header must contain %q and %q columns, got %q", ColumnID, ColumnPopulation, header)
	}

	seen := make(map[string]struct{})
	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, errors.Wrap(errors.ErrCodeParse, err, "read population row %d", stats.Rows+1)
		}
		stats.Rows++

		id := field(row, idCol)
		pop, ok := parsePopulation(field(row, popCol))
		if id == "" || !ok {
			stats.Skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			stats.Duplicates++
		}
		seen[id] = struct{}{}

		records = append(records, Record{ID: id, Name: field(row, nameCol), Population: pop})
	}
	stats.Records = len(records)
	return records, stats, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parsePopulation accepts plain and digit-grouped numbers ("1,234").
func parsePopulation(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Index maps country id to population.
type Index map[string]float64

// NewIndex builds an index from records. When an id repeats, the last
// record wins.
func NewIndex(records []Record) Index {
	idx := make(Index, len(records))
	for _, r := range records {
		idx[r.ID] = r.Population
	}
	return idx
}

// Lookup returns the population for id.
func (idx Index) Lookup(id string) (float64, bool) {
	v, ok := idx[id]
	return v, ok
}

// IDs returns the indexed ids in sorted order.
func (idx Index) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Total returns the summed population of every indexed id.
func (idx Index) Total() float64 {
	var sum float64
	for _, v := range idx {
		sum += v
	}
	return sum
}
