package sink

import (
	"encoding/json"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/join"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
	"github.com/matzehuels/popmap/pkg/scale"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	stats       *join.Stats
	description string
	err         error
	noPaths     bool
}

// WithJSONJoinStats records how the sources lined up.
func WithJSONJoinStats(s join.Stats) JSONOption { return func(r *jsonRenderer) { r.stats = &s } }

// WithJSONDescription records the configured panel caption.
func WithJSONDescription(d string) JSONOption { return func(r *jsonRenderer) { r.description = d } }

// WithJSONError records a load failure.
func WithJSONError(err error) JSONOption { return func(r *jsonRenderer) { r.err = err } }

// WithoutJSONPaths omits path data, leaving only the joined table.
func WithoutJSONPaths() JSONOption { return func(r *jsonRenderer) { r.noPaths = true } }

type jsonOutput struct {
	Surface     choropleth.Surface  `json:"surface"`
	Projection  jsonProjection      `json:"projection"`
	Description string              `json:"description,omitempty"`
	Countries   []jsonCountry       `json:"countries"`
	Mesh        string              `json:"mesh,omitempty"`
	Legend      []scale.LegendEntry `json:"legend"`
	Join        *join.Stats         `json:"join,omitempty"`
	Error       *jsonError          `json:"error,omitempty"`
}

type jsonProjection struct {
	Name      string     `json:"name"`
	Scale     float64    `json:"scale"`
	Rotate    [3]float64 `json:"rotate"`
	Translate [2]float64 `json:"translate"`
}

type jsonCountry struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Population     *float64 `json:"population"`
	PopulationText string   `json:"population_text"`
	Bucket         int      `json:"bucket"`
	Color          string   `json:"color"`
	Path           string   `json:"path,omitempty"`
}

type jsonError struct {
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

// RenderJSON exports m as indented JSON.
func RenderJSON(m *choropleth.Map, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Surface:     m.Surface,
		Description: r.description,
		Countries:   make([]jsonCountry, 0, len(m.Countries)),
		Legend:      m.Scale.Legend(),
		Join:        r.stats,
	}
	if p := m.Projection; p != nil {
		out.Projection = jsonProjection{
			Name:      "robinson",
			Scale:     p.Scale(),
			Rotate:    p.RotateAngles(),
			Translate: p.Translate(),
		}
	}
	if !r.noPaths {
		out.Mesh = m.MeshD
	}
	if r.err != nil {
		out.Error = &jsonError{Code: errors.GetCode(r.err), Message: errors.UserMessage(r.err)}
	}

	for _, c := range m.Countries {
		jc := jsonCountry{
			ID:             c.Feature.ID,
			Name:           c.Feature.Name,
			Population:     c.Feature.Population,
			PopulationText: scale.FormatPopulationPtr(c.Feature.Population),
			Bucket:         c.Bucket,
			Color:          c.Color,
		}
		if !r.noPaths {
			jc.Path = c.D
		}
		out.Countries = append(out.Countries, jc)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode map json")
	}
	return data, nil
}
