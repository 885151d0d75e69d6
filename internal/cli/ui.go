package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// =============================================================================
// Palette
// =============================================================================

// The accent colors are taken from the map's own blues so that terminal
// output and the rendered map look related.
var (
	colorAccent = lipgloss.Color("#4292c6") // mid blue - titles, spinner
	colorDeep   = lipgloss.Color("#08519c") // dark blue - commands
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorValue  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleValue   = lipgloss.NewStyle().Foreground(colorValue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarn    = lipgloss.NewStyle().Foreground(colorYellow)
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand = lipgloss.NewStyle().Foreground(colorDeep).Underline(true)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

const (
	markOK   = "✓"
	markWarn = "!"
	markInfo = "›"
	markFile = "→"
)

// =============================================================================
// Printer
// =============================================================================

// printer writes status lines for humans. Commands send it to stderr so that
// stdout only ever carries data (a map written with -o -, a path, a schema).
type printer struct {
	w io.Writer
}

func newPrinter(cmd *cobra.Command) printer {
	return printer{w: cmd.ErrOrStderr()}
}

func (p printer) line(mark lipgloss.Style, icon, msg string) {
	fmt.Fprintln(p.w, mark.Render(icon)+" "+msg)
}

func (p printer) success(format string, args ...any) {
	p.line(styleOK, markOK, fmt.Sprintf(format, args...))
}

func (p printer) warn(format string, args ...any) {
	p.line(styleWarn, markWarn, styleWarn.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleMuted, markInfo, fmt.Sprintf(format, args...))
}

// detail prints an indented secondary line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file reports a written output file and its size.
func (p printer) file(path string, size int) {
	fmt.Fprintf(p.w, "  %s %s %s\n",
		StyleDim.Render(markFile), styleValue.Render(path),
		StyleDim.Render("("+humanize.Bytes(uint64(size))+")"))
}

func (p printer) keyValue(key, value string) {
	fmt.Fprintln(p.w, styleKey.Render(key)+" "+styleValue.Render(value))
}

// next suggests what to do now.
func (p printer) next(description, command string) {
	fmt.Fprintln(p.w, StyleDim.Render(description+":")+" "+styleCommand.Render(command))
}

// stats prints the join summary of a render on one line, e.g.
// "177 countries · 176 with population (99%) · cached".
func (p printer) stats(features, matched int, cached bool) {
	parts := []string{fmt.Sprintf("%d countries", features)}
	if features > 0 {
		parts = append(parts, fmt.Sprintf("%d with population (%d%%)", matched, matched*100/features))
	}
	if cached {
		parts = append(parts, styleOK.Render("cached"))
	} else {
		parts = append(parts, styleMuted.Render("fresh"))
	}
	for i := range parts[:len(parts)-1] {
		parts[i] = StyleDim.Render(parts[i])
	}
	fmt.Fprintln(p.w, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}
