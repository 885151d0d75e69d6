// Package sink writes a laid out [choropleth.Map] in its output formats.
//
//   - SVG: the map surface with hover interaction and tooltips
//   - HTML: the SVG wrapped in the panel markup of the web part
//   - JSON: per-country data and path strings for external tools
//   - PDF and PNG: the SVG converted by rsvg-convert
//
// # SVG Output
//
// [RenderSVG] emits one <path> per country inside g.map > g.countries,
// styled fill=<scale color>, stroke white, opacity 0.8, stroke-width 0.3,
// followed by a single path.names element for the border mesh. An embedded
// script raises a hovered shape to opacity 1 and stroke-width 3 and shows a
// tooltip above it; leaving restores the resting style. All element ids and
// CSS selectors are scoped to the surface id, so several maps can share a
// page.
//
//	svg := sink.RenderSVG(m,
//	    sink.WithSurfaceID("popmap-main"),
//	    sink.WithLegend(),
//	)
//
// A map whose sources failed to load is rendered with [WithError]: an empty
// surface carrying a data-error attribute.
//
// [choropleth.Map]: github.com/matzehuels/popmap/pkg/render/choropleth.Map
package sink
