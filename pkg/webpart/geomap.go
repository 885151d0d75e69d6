package webpart

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/render/sink"
)

// Component is the capability set a host needs from an embedded part.
type Component interface {
	Render(ctx context.Context, region *Region) (*Handle, error)
	ConfigurationSchema() Schema
	DataVersion() string
}

// GeoMap renders the population choropleth panel.
type GeoMap struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger

	mu    sync.RWMutex
	props Properties
}

// NewGeoMap returns a component rendering with runner. base supplies the
// source references and map settings; its formats and surface id are
// replaced on every render.
func NewGeoMap(runner *pipeline.Runner, base pipeline.Options, props Properties) *GeoMap {
	logger := runner.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &GeoMap{runner: runner, base: base, props: props, logger: logger}
}

// Properties returns the current properties.
func (g *GeoMap) Properties() Properties {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.props
}

// SetProperties validates and applies p. Live renders keep their content;
// the next render picks up the change.
func (g *GeoMap) SetProperties(p Properties) error {
	if n := utf8.RuneCountInString(p.Description); n > MaxDescriptionLength {
		return errors.New(errors.ErrCodeInvalidInput, "description too long (%d > %d characters)", n, MaxDescriptionLength)
	}
	if !utf8.ValidString(p.Description) {
		return errors.New(errors.ErrCodeInvalidInput, "description is not valid UTF-8")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.props = p
	return nil
}

// ConfigurationSchema returns the property editor description.
func (g *GeoMap) ConfigurationSchema() Schema { return DefaultSchema() }

// DataVersion returns the property format version.
func (g *GeoMap) DataVersion() string { return DataVersion }

// Render takes ownership of region and fills it with the map panel. The
// error is REGION_BUSY when another handle owns the region; load and
// validation failures are reported through [Handle.Err] instead, with the
// region showing the failure panel.
func (g *GeoMap) Render(ctx context.Context, region *Region) (*Handle, error) {
	if region == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil region")
	}
	h := &Handle{id: sink.NewSurfaceID(), region: region}
	if err := region.acquire(h); err != nil {
		return nil, err
	}

	opts := g.base
	opts.Formats = []string{pipeline.FormatHTML}
	opts.SurfaceID = h.id
	opts.Description = g.Properties().Description

	res, err := g.runner.Execute(ctx, opts)
	h.result, h.err = res, err

	var content []byte
	switch {
	case res != nil:
		content = res.Artifacts[pipeline.FormatHTML]
	case err != nil:
		content = pipeline.RenderFailure(err, opts)[pipeline.FormatHTML]
	}
	region.fill(h, content)

	if err != nil {
		g.logger.Error("render failed", "region", region.Name(), "surface", h.id, "err", err)
	} else {
		g.logger.Debug("rendered", "region", region.Name(), "surface", h.id)
	}
	return h, nil
}

var _ Component = (*GeoMap)(nil)
