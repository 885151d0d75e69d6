package sink

import (
	"context"

	"github.com/matzehuels/popmap/pkg/render"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
)

// RenderPDF renders m as PDF via SVG conversion. Scripts are dropped since
// the output is static.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, m *choropleth.Map, opts ...SVGOption) ([]byte, error) {
	svg := RenderSVG(m, append(opts, WithoutTooltips())...)
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders m as PNG at the given scale (2.0 for 2x resolution).
func RenderPNG(ctx context.Context, m *choropleth.Map, scale float64, opts ...SVGOption) ([]byte, error) {
	svg := RenderSVG(m, append(opts, WithoutTooltips())...)
	return render.ToPNG(ctx, svg, scale)
}
