// Package pipeline runs the load → join → build → render sequence behind
// every popmap entry point (CLI, HTTP server, web part).
//
// # Stages
//
//  1. Load: fetch geometry and population concurrently ([source.Loader])
//  2. Join: attach population to features by id ([join.Join])
//  3. Build: project and color the map ([choropleth.Build])
//  4. Render: produce artifacts in the requested formats
//
// # Usage
//
//	runner := pipeline.NewRunner(loader, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    GeometryRef:   "world_countries.json",
//	    PopulationRef: "world_population.tsv",
//	    Formats:       []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// When loading fails, Execute still returns a Result whose artifacts
// describe the failure (an empty surface carrying a data-error attribute)
// together with the error.
package pipeline

import (
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popmap/pkg/cache"
	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/join"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
	"github.com/matzehuels/popmap/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, server and web part
// =============================================================================

const (
	// DefaultGeometryRef and DefaultPopulationRef name the two resources
	// relative to the working directory.
	DefaultGeometryRef   = "world_countries.json"
	DefaultPopulationRef = "world_population.tsv"

	DefaultWidth       = 960.0
	DefaultHeight      = 500.0
	DefaultMarginRight = 400.0

	// DefaultScale is the projection scale.
	DefaultScale = 100.0

	// DefaultPNGScale is the rasterisation factor for PNG output.
	DefaultPNGScale = 2.0

	DefaultFetchTimeout = source.DefaultFetchTimeout
)

// DefaultRotate is the projection rotation in degrees [λ, φ, γ].
var DefaultRotate = [3]float64{352, 0, 0}

// discard is the logger of options that were given none.
var discard = log.NewWithOptions(io.Discard, log.Options{})

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatJSON: true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run. It
// serializes to JSON for the HTTP API.
type Options struct {
	// Load options
	GeometryRef   string        `json:"geometry,omitempty"`
	PopulationRef string        `json:"population,omitempty"`
	FetchTimeout  time.Duration `json:"fetch_timeout,omitempty"`
	Refresh       bool          `json:"refresh,omitempty"`

	// Build options. Nil Margin and Rotate mean the defaults; a zero value
	// is a valid explicit setting for both.
	Width  float64            `json:"width,omitempty"`
	Height float64            `json:"height,omitempty"`
	Margin *choropleth.Margin `json:"margin,omitempty"`
	Scale  float64            `json:"scale,omitempty"`
	Rotate *[3]float64        `json:"rotate,omitempty"`
	NoMesh bool               `json:"no_mesh,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Legend      bool     `json:"legend,omitempty"`
	NoTooltips  bool     `json:"no_tooltips,omitempty"`
	Description string   `json:"description,omitempty"`
	PNGScale    float64  `json:"png_scale,omitempty"`
	// SurfaceID fixes the element id of the rendered surface. Empty means
	// a fresh id per render.
	SurfaceID string `json:"surface_id,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Loaded holds the decoded sources; nil when loading failed.
	Loaded *source.Loaded

	// Map is the built choropleth; nil when loading failed.
	Map *choropleth.Map

	// Join summarizes how many features received a population.
	Join join.Stats

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Features   int
	Matched    int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // every requested artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, html, json, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma separated list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.GeometryRef == "" {
		o.GeometryRef = DefaultGeometryRef
	}
	if o.PopulationRef == "" {
		o.PopulationRef = DefaultPopulationRef
	}
	if o.FetchTimeout == 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetBuildDefaults fills in surface and projection defaults.
func (o *Options) SetBuildDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Margin == nil {
		o.Margin = &choropleth.Margin{Right: DefaultMarginRight}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Rotate == nil {
		r := DefaultRotate
		o.Rotate = &r
	}
	if o.Logger == nil {
		o.Logger = discard
	}
}

// ValidateForBuild sets build defaults and rejects unusable geometry.
func (o *Options) ValidateForBuild() error {
	o.SetBuildDefaults()
	if err := o.checkFinite(); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width and height must be positive, got %vx%v", o.Width, o.Height)
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return o.Surface().Validate()
}

// checkFinite rejects NaN and infinite surface and projection numbers.
// ParseFloat and JSON decoding of overrides both let them through.
func (o *Options) checkFinite() error {
	type field struct {
		name string
		v    float64
	}
	fields := []field{{"width", o.Width}, {"height", o.Height}, {"scale", o.Scale}}
	if m := o.Margin; m != nil {
		fields = append(fields,
			field{"margin.top", m.Top}, field{"margin.right", m.Right},
			field{"margin.bottom", m.Bottom}, field{"margin.left", m.Left})
	}
	if r := o.Rotate; r != nil {
		fields = append(fields, field{"rotate[0]", r[0]}, field{"rotate[1]", r[1]}, field{"rotate[2]", r[2]})
	}
	for _, f := range fields {
		if !finite(f.v) {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be a finite number, got %v", f.name, f.v)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SetRenderDefaults fills in render defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = discard
	}
}

// ValidateForRender sets render defaults and validates formats.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if !finite(o.PNGScale) || o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %v", o.PNGScale)
	}
	return ValidateFormats(o.Formats)
}

// Surface returns the drawing surface described by the options. Call after
// SetBuildDefaults.
func (o *Options) Surface() choropleth.Surface {
	s := choropleth.Surface{Width: o.Width, Height: o.Height}
	if o.Margin != nil {
		s.Margin = *o.Margin
	}
	return s
}

// BuildOptions returns the choropleth options for the current settings.
func (o *Options) BuildOptions() []choropleth.Option {
	opts := []choropleth.Option{
		choropleth.WithSurface(o.Surface()),
		choropleth.WithProjectionScale(o.Scale),
	}
	if o.Rotate != nil {
		opts = append(opts, choropleth.WithRotate(*o.Rotate))
	}
	if o.NoMesh {
		opts = append(opts, choropleth.WithoutMesh())
	}
	return opts
}

// Cacheable reports whether format may be served from the artifact cache.
// HTML panels are always rendered fresh so every region gets its own ids.
func (o *Options) Cacheable(format string) bool {
	return format != FormatHTML
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:      format,
		Width:       o.Width,
		Height:      o.Height,
		Scale:       o.Scale,
		Legend:      o.Legend,
		Mesh:        !o.NoMesh,
		Tooltips:    !o.NoTooltips,
		Description: o.Description,
		SurfaceID:   o.SurfaceID,
	}
	if o.Margin != nil {
		k.Margin = [4]float64{o.Margin.Top, o.Margin.Right, o.Margin.Bottom, o.Margin.Left}
	}
	if o.Rotate != nil {
		k.Rotate = *o.Rotate
	}
	if format == FormatPNG {
		k.PNGScale = o.PNGScale
	}
	return k
}
