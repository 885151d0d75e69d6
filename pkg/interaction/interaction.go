// Package interaction implements the hover behaviour of map shapes.
//
// A [Machine] has two states. In Idle nothing is highlighted and no tooltip
// is shown. In Hovered exactly one feature is highlighted and its tooltip is
// visible. Transitions are reported to an [Effects] implementation, which
// applies them to whatever surface is being driven: the embedded SVG script
// mirrors these rules in the browser, and the terminal preview drives the
// machine directly.
package interaction

import (
	"html"
	"sync"

	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/scale"
)

// State is the hover state.
type State int

const (
	Idle State = iota
	Hovered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Hovered:
		return "hovered"
	default:
		return "unknown"
	}
}

// Style is the visual emphasis of a shape.
type Style struct {
	Opacity     float64
	StrokeWidth float64
}

var (
	// Base is the resting style of every shape.
	Base = Style{Opacity: 0.8, StrokeWidth: 0.3}
	// Highlight is applied to the hovered shape.
	Highlight = Style{Opacity: 1, StrokeWidth: 3}
)

// TooltipOffset is the [dy, dx] displacement of the tooltip from the top
// centre of the hovered shape.
var TooltipOffset = [2]float64{-10, 0}

// Tooltip is the content shown for a hovered feature.
type Tooltip struct {
	Feature *geo.Feature
	Text    string
	Offset  [2]float64
}

// Effects receives the side effects of transitions. Methods are called with
// the machine locked and must not call back into it.
type Effects interface {
	Restyle(f *geo.Feature, s Style)
	ShowTooltip(t Tooltip)
	HideTooltip()
}

// Machine is the hover state machine. It is safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	fx      Effects
	current *geo.Feature
}

// New returns an idle machine reporting to fx.
func New(fx Effects) *Machine {
	return &Machine{fx: fx}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Idle
	}
	return Hovered
}

// Current returns the hovered feature, or nil when idle.
func (m *Machine) Current() *geo.Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Enter moves the pointer onto f. Entering a different feature while one
// is hovered first leaves the old one, so at most one shape is ever
// highlighted. Re-entering the hovered feature does nothing.
func (m *Machine) Enter(f *geo.Feature) {
	if f == nil {
		m.Leave()
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == f {
		return
	}
	if m.current != nil {
		m.leaveLocked()
	}
	m.current = f
	m.fx.Restyle(f, Highlight)
	m.fx.ShowTooltip(Tooltip{Feature: f, Text: TooltipText(f), Offset: TooltipOffset})
}

// Leave moves the pointer off the hovered feature. It is a no-op when idle.
func (m *Machine) Leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.leaveLocked()
	}
}

func (m *Machine) leaveLocked() {
	f := m.current
	m.current = nil
	m.fx.Restyle(f, Base)
	m.fx.HideTooltip()
}

// TooltipText is the plain-text tooltip for f.
func TooltipText(f *geo.Feature) string {
	return "Country: " + f.Name + "\nPopulation: " + scale.FormatPopulationPtr(f.Population)
}

// TooltipHTML is the tooltip markup for f, with the name escaped.
func TooltipHTML(f *geo.Feature) string {
	return "<strong>Country: </strong><span class='details'>" + html.EscapeString(f.Name) +
		"<br></span><strong>Population: </strong><span class='details'>" +
		scale.FormatPopulationPtr(f.Population) + "</span>"
}
