package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/popmap/pkg/render/choropleth"
)

const (
	legendSwatch = 14.0
	legendRow    = 20.0
	legendPad    = 24.0
)

// renderLegend draws the palette in the reserved right margin.
func renderLegend(buf *bytes.Buffer, m *choropleth.Map) {
	w, _ := m.Surface.Inner()
	x := m.Surface.Margin.Left + w + legendPad
	y := m.Surface.Margin.Top + legendPad

	fmt.Fprintf(buf, "  <g class=\"legend\" transform=\"translate(%s,%s)\">\n", coord(x), coord(y))
	buf.WriteString("    <text x=\"0\" y=\"-8\">Population</text>\n")
	for i, e := range m.Scale.Legend() {
		ry := float64(i) * legendRow
		fmt.Fprintf(buf, "    <rect x=\"0\" y=\"%s\" width=\"%s\" height=\"%s\" style=\"fill:%s;stroke:#999;stroke-width:0.5\"/>\n",
			coord(ry), coord(legendSwatch), coord(legendSwatch), html.EscapeString(e.Color))
		fmt.Fprintf(buf, "    <text x=\"%s\" y=\"%s\">%s</text>\n",
			coord(legendSwatch+8), coord(ry+legendSwatch-3), html.EscapeString(e.Label))
	}
	buf.WriteString("  </g>\n")
}
