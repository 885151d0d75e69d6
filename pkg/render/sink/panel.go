package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/popmap/pkg/errors"
)

// PanelOption configures RenderPanel.
type PanelOption func(*panelRenderer)

type panelRenderer struct {
	id          string
	description string
	err         error
}

// WithPanelID sets the id of the outer element.
func WithPanelID(id string) PanelOption { return func(r *panelRenderer) { r.id = id } }

// WithDescription sets the caption shown above the map. It is escaped.
func WithDescription(s string) PanelOption { return func(r *panelRenderer) { r.description = s } }

// WithPanelError marks the panel as failed and shows a short notice.
func WithPanelError(err error) PanelOption { return func(r *panelRenderer) { r.err = err } }

// RenderPanel wraps a rendered surface in the web part markup:
// div.geoMap > div.container > div.row > div.column > div.map.
func RenderPanel(surface []byte, opts ...PanelOption) []byte {
	var r panelRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="geoMap"`)
	if r.id != "" {
		fmt.Fprintf(&buf, ` id="%s"`, html.EscapeString(r.id))
	}
	if r.err != nil {
		fmt.Fprintf(&buf, ` data-error="%s"`, html.EscapeString(errors.UserMessage(r.err)))
	}
	buf.WriteString(">\n")
	buf.WriteString("  <div class=\"container\">\n    <div class=\"row\">\n      <div class=\"column\">\n")
	if r.description != "" {
		fmt.Fprintf(&buf, "        <p class=\"description\">%s</p>\n", html.EscapeString(r.description))
	}
	if r.err != nil {
		fmt.Fprintf(&buf, "        <p class=\"error\">Map unavailable: %s</p>\n", html.EscapeString(errors.UserMessage(r.err)))
	}
	buf.WriteString("        <div class=\"map\">\n")
	buf.Write(surface)
	buf.WriteString("        </div>\n      </div>\n    </div>\n  </div>\n</div>\n")
	return buf.Bytes()
}
