package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/popmap/pkg/join"
	"github.com/matzehuels/popmap/pkg/observability"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
	"github.com/matzehuels/popmap/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, m *choropleth.Map, stats join.Stats, opts Options) (map[string][]byte, error) {
	svgOpts := svgOptions(opts)
	artifacts := make(map[string][]byte)
	hooks := observability.Pipeline()

	for _, format := range opts.Formats {
		hooks.OnRenderStart(ctx, format)
		start := time.Now()

		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(m, svgOpts...)
		case FormatHTML:
			data = sink.RenderPanel(sink.RenderSVG(m, svgOpts...), panelOptions(opts)...)
		case FormatJSON:
			data, err = sink.RenderJSON(m,
				sink.WithJSONJoinStats(stats),
				sink.WithJSONDescription(opts.Description))
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, m, opts.PNGScale, svgOpts...)
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, m, svgOpts...)
		default:
			err = ValidateFormat(format)
		}

		hooks.OnRenderComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// RenderFailure produces the failure artifacts for a run whose sources did
// not load: an empty surface with a data-error attribute for svg and html,
// an error object for json. Raster formats have no failure form and are
// omitted.
func RenderFailure(cause error, opts Options) map[string][]byte {
	opts.SetBuildDefaults()
	empty := choropleth.Empty(opts.Surface())
	svgOpts := append(svgOptions(opts), sink.WithError(cause))

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			artifacts[format] = sink.RenderSVG(empty, svgOpts...)
		case FormatHTML:
			panel := append(panelOptions(opts), sink.WithPanelError(cause))
			artifacts[format] = sink.RenderPanel(sink.RenderSVG(empty, svgOpts...), panel...)
		case FormatJSON:
			if data, err := sink.RenderJSON(empty, sink.WithJSONError(cause), sink.WithJSONDescription(opts.Description)); err == nil {
				artifacts[format] = data
			}
		}
	}
	return artifacts
}

func svgOptions(opts Options) []sink.SVGOption {
	var out []sink.SVGOption
	if opts.SurfaceID != "" {
		out = append(out, sink.WithSurfaceID(opts.SurfaceID))
	}
	if opts.Legend {
		out = append(out, sink.WithLegend())
	}
	if opts.NoTooltips {
		out = append(out, sink.WithoutTooltips())
	}
	return out
}

func panelOptions(opts Options) []sink.PanelOption {
	var out []sink.PanelOption
	if opts.SurfaceID != "" {
		out = append(out, sink.WithPanelID(opts.SurfaceID+"-panel"))
	}
	if opts.Description != "" {
		out = append(out, sink.WithDescription(opts.Description))
	}
	return out
}
