// Package render holds the shared pieces of map output.
//
// The subpackages do the work:
//
//   - [choropleth]: projects joined features onto a surface and assigns colors
//   - [sink]: writes a laid out map as SVG, an HTML panel, or JSON
//
// This package converts finished SVG into raster and print formats with the
// external rsvg-convert tool from librsvg:
//
//	svg := sink.RenderSVG(m)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [choropleth]: github.com/matzehuels/popmap/pkg/render/choropleth
// [sink]: github.com/matzehuels/popmap/pkg/render/sink
package render
