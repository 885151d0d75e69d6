package sink

import (
	"bytes"
	"fmt"
	"html"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/interaction"
	"github.com/matzehuels/popmap/pkg/projection"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
	"github.com/matzehuels/popmap/pkg/scale"
)

// Shape styling shared with the embedded script.
const (
	shapeStroke = "white"
	meshStyle   = "fill:none;stroke:white;stroke-width:0.3;stroke-linejoin:round"
)

// %[1]s is the surface id.
const mapInteractionCSS = `
    #%[1]s .countries path { transition: opacity 0.1s ease, stroke-width 0.1s ease; }
    #%[1]s .names { pointer-events: none; }
    #%[1]s .d3-tip { pointer-events: none; font: 12px sans-serif; }
    #%[1]s .d3-tip rect { fill: rgba(0, 0, 0, 0.8); }
    #%[1]s .d3-tip text { fill: #fff; }
    #%[1]s .d3-tip .label { font-weight: bold; }
    #%[1]s .legend text { font: 11px sans-serif; fill: #333; }`

// %[1]s is the surface id; %[2]s..%[5]s are the base and highlight styles;
// %[6]s and %[7]s are the tooltip offset.
const mapInteractionJS = `
    (function () {
      var root = document.getElementById('%[1]s');
      if (!root) return;
      var tip = root.querySelector('.d3-tip');
      var box = tip.querySelector('rect');
      var name = tip.querySelector('.tip-name');
      var pop = tip.querySelector('.tip-population');
      var current = null;
      function restyle(el, opacity, width) {
        el.style.opacity = opacity;
        el.style.strokeWidth = width;
      }
      function leave() {
        if (!current) return;
        restyle(current, %[2]s, %[3]s);
        tip.setAttribute('visibility', 'hidden');
        current = null;
      }
      function enter(el) {
        if (current === el) return;
        leave();
        current = el;
        restyle(el, %[4]s, %[5]s);
        name.textContent = el.getAttribute('data-name');
        pop.textContent = el.getAttribute('data-population');
        var w = 0;
        tip.querySelectorAll('text').forEach(function (t) { w = Math.max(w, t.getBBox().width); });
        box.setAttribute('width', (w + 16).toFixed(1));
        var b = el.getBBox(), t = box.getBBox();
        var x = b.x + b.width / 2 - t.width / 2 + %[7]s;
        var y = b.y - t.height + %[6]s;
        x = Math.max(0, Math.min(x, root.viewBox.baseVal.width - t.width));
        y = Math.max(0, y);
        tip.setAttribute('transform', 'translate(' + x.toFixed(1) + ',' + y.toFixed(1) + ')');
        tip.setAttribute('visibility', 'visible');
      }
      root.querySelectorAll('.countries path').forEach(function (el) {
        el.addEventListener('mouseenter', function () { enter(el); });
        el.addEventListener('mouseleave', leave);
      });
    })();`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	id       string
	legend   bool
	tooltips bool
	err      error
}

func WithSurfaceID(id string) SVGOption { return func(r *svgRenderer) { r.id = id } }
func WithLegend() SVGOption             { return func(r *svgRenderer) { r.legend = true } }
func WithoutTooltips() SVGOption        { return func(r *svgRenderer) { r.tooltips = false } }

// WithError renders an empty surface that reports err in a data-error
// attribute.
func WithError(err error) SVGOption { return func(r *svgRenderer) { r.err = err } }

// NewSurfaceID returns a fresh element id for a surface.
func NewSurfaceID() string {
	return "popmap-" + uuid.NewString()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{tooltips: true}
	for _, opt := range opts {
		opt(&r)
	}
	if r.id == "" {
		r.id = NewSurfaceID()
	}
	return r
}

// RenderSVG renders m as a standalone interactive SVG document.
func RenderSVG(m *choropleth.Map, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	w, h := m.Surface.Inner()
	if r.legend {
		w = m.Surface.Width - m.Surface.Margin.Left
	}
	id := html.EscapeString(r.id)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="popmap" viewBox="0 0 %s %s" width="%s" height="%s"`,
		id, num(w), num(h), num(w), num(h))
	if r.err != nil {
		fmt.Fprintf(&buf, ` data-error="%s">`+"\n", html.EscapeString(errors.UserMessage(r.err)))
		buf.WriteString("  <g class=\"map\">\n    <g class=\"countries\"></g>\n  </g>\n</svg>\n")
		return buf.Bytes()
	}
	buf.WriteString(">\n")

	renderStyle(&buf, r.id)
	renderCountries(&buf, m)
	if r.legend {
		renderLegend(&buf, m)
	}
	if r.tooltips {
		renderTooltip(&buf)
		renderScript(&buf, r.id)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderStyle(buf *bytes.Buffer, id string) {
	fmt.Fprintf(buf, "  <style>"+mapInteractionCSS+"\n  </style>\n", id)
}

func renderCountries(buf *bytes.Buffer, m *choropleth.Map) {
	if m.Surface.Margin.Left != 0 || m.Surface.Margin.Top != 0 {
		fmt.Fprintf(buf, "  <g class=\"map\" transform=\"translate(%s,%s)\">\n", num(m.Surface.Margin.Left), num(m.Surface.Margin.Top))
	} else {
		buf.WriteString("  <g class=\"map\">\n")
	}
	buf.WriteString("    <g class=\"countries\">\n")
	for _, c := range m.Countries {
		f := c.Feature
		fmt.Fprintf(buf,
			`      <path data-id="%s" data-name="%s" data-population="%s" data-bucket="%d" d="%s" style="fill:%s;stroke:%s;opacity:%s;stroke-width:%s"/>`+"\n",
			html.EscapeString(f.ID), html.EscapeString(f.Name),
			scale.FormatPopulationPtr(f.Population), c.Bucket, c.D,
			html.EscapeString(c.Color), shapeStroke,
			num(interaction.Base.Opacity), num(interaction.Base.StrokeWidth))
	}
	buf.WriteString("    </g>\n")
	if m.MeshD != "" {
		fmt.Fprintf(buf, "    <path class=\"names\" d=\"%s\" style=\"%s\"/>\n", m.MeshD, meshStyle)
	}
	buf.WriteString("  </g>\n")
}

func renderTooltip(buf *bytes.Buffer) {
	buf.WriteString(`  <g class="d3-tip" visibility="hidden">
    <rect x="0" y="0" width="160" height="40" rx="2"/>
    <text x="8" y="16"><tspan class="label">Country: </tspan><tspan class="tip-name"></tspan></text>
    <text x="8" y="32"><tspan class="label">Population: </tspan><tspan class="tip-population"></tspan></text>
  </g>
`)
}

func renderScript(buf *bytes.Buffer, id string) {
	js := fmt.Sprintf(mapInteractionJS, id,
		num(interaction.Base.Opacity), num(interaction.Base.StrokeWidth),
		num(interaction.Highlight.Opacity), num(interaction.Highlight.StrokeWidth),
		num(interaction.TooltipOffset[0]), num(interaction.TooltipOffset[1]))
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coord formats a surface coordinate with path precision.
func coord(v float64) string {
	return projection.FormatCoord(v)
}
