package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/interaction"
	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var flags mapFlags

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Explore the map in the terminal",
		Long: `Preview draws the map with terminal cells. Hover a country with the
mouse, or move the cursor with the arrow keys, to see its population.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := baseOptions(cfg)
			flags.apply(cmd, &opts)
			opts.Formats = []string{pipeline.FormatJSON}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			store, err := newCache(ctx, cfg.Cache, flags.noCache)
			if err != nil {
				return err
			}
			runner := c.newRunner(store, cfg.Cache)
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Loading sources...")
			spinner.Start()
			res := runner.Load(ctx, opts)
			if res.Err != nil {
				spinner.Stop()
				return res.Err
			}
			spinner.SetMessage("Building map...")
			m, _, err := runner.Build(ctx, res.Loaded, opts)
			spinner.Stop()
			if err != nil {
				return err
			}

			p := tea.NewProgram(newPreviewModel(m),
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseAllMotion())
			_, err = p.Run()
			return err
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// Effects - applies hover transitions to the terminal view
// =============================================================================

// termEffects records what the hover machine asked for; View reads it.
type termEffects struct {
	highlight *geo.Feature
	tooltip   *interaction.Tooltip
}

func (e *termEffects) Restyle(f *geo.Feature, s interaction.Style) {
	switch {
	case s == interaction.Highlight:
		e.highlight = f
	case e.highlight == f:
		e.highlight = nil
	}
}

func (e *termEffects) ShowTooltip(t interaction.Tooltip) { e.tooltip = &t }
func (e *termEffects) HideTooltip()                      { e.tooltip = nil }

// =============================================================================
// PreviewModel
// =============================================================================

const (
	previewHeader  = 2  // title and help lines above the grid
	previewSidebar = 34 // columns reserved for tooltip and legend
	minGridCols    = 20
)

var (
	previewHighlight = lipgloss.NewStyle().Background(colorYellow)
	previewCursor    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	previewTooltip   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1).
				Width(previewSidebar - 4)
)

// previewModel is the bubbletea model of the terminal map. Each grid cell
// samples the map at its centre.
type previewModel struct {
	m       *choropleth.Map
	fx      *termEffects
	machine *interaction.Machine

	cols, rows int
	grid       [][]*choropleth.Country
	cx, cy     int // cursor cell
}

func newPreviewModel(m *choropleth.Map) *previewModel {
	fx := &termEffects{}
	pm := &previewModel{m: m, fx: fx, machine: interaction.New(fx)}
	pm.resize(80+previewSidebar, 24)
	return pm
}

// resize fits the grid into a terminal of w×h cells. Cells are about twice
// as tall as wide, so the grid has half as many rows as the map's aspect
// ratio would suggest. Samples are in map coordinates, inside the margins.
func (pm *previewModel) resize(w, h int) {
	iw, ih := pm.m.Surface.Inner()
	cols := max(w-previewSidebar, minGridCols)
	rows := int(float64(cols) * ih / iw / 2)
	if avail := h - previewHeader - 1; rows > avail && avail > 0 {
		rows = avail
		cols = max(int(float64(rows)*2*iw/ih), minGridCols)
	}
	rows = max(rows, 1)

	pm.cols, pm.rows = cols, rows
	pm.grid = make([][]*choropleth.Country, rows)
	for r := range rows {
		pm.grid[r] = make([]*choropleth.Country, cols)
		y := (float64(r) + 0.5) * ih / float64(rows)
		for c := range cols {
			x := (float64(c) + 0.5) * iw / float64(cols)
			pm.grid[r][c] = pm.m.HitTest(x, y)
		}
	}
	pm.cx, pm.cy = min(pm.cx, cols-1), min(pm.cy, rows-1)
}

// hover points the machine at the country under the cursor.
func (pm *previewModel) hover() {
	if c := pm.grid[pm.cy][pm.cx]; c != nil {
		pm.machine.Enter(c.Feature)
		return
	}
	pm.machine.Leave()
}

func (pm *previewModel) Init() tea.Cmd {
	return nil
}

func (pm *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return pm, tea.Quit
		case "up", "k":
			pm.cy = max(pm.cy-1, 0)
		case "down", "j":
			pm.cy = min(pm.cy+1, pm.rows-1)
		case "left", "h":
			pm.cx = max(pm.cx-1, 0)
		case "right", "l":
			pm.cx = min(pm.cx+1, pm.cols-1)
		default:
			return pm, nil
		}
		pm.hover()
	case tea.MouseMsg:
		row, col := msg.Y-previewHeader, msg.X
		if row < 0 || row >= pm.rows || col < 0 || col >= pm.cols {
			pm.machine.Leave()
			return pm, nil
		}
		pm.cx, pm.cy = col, row
		pm.hover()
	case tea.WindowSizeMsg:
		pm.resize(msg.Width, msg.Height)
		pm.hover()
	}
	return pm, nil
}

func (pm *previewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("World population"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("mouse or ←↑↓→ hover  q quit"))
	b.WriteString("\n")

	grid := pm.renderGrid()
	side := lipgloss.JoinVertical(lipgloss.Left, pm.renderTooltip(), pm.renderLegend())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", side))
	return b.String()
}

// renderGrid draws the cells, batching runs of equal style.
func (pm *previewModel) renderGrid() string {
	var b strings.Builder
	for r, row := range pm.grid {
		var (
			run      strings.Builder
			runStyle lipgloss.Style
			runKey   string
		)
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(runStyle.Render(run.String()))
				run.Reset()
			}
		}
		for c, country := range row {
			ch, key, style := " ", "", lipgloss.NewStyle()
			if country != nil {
				ch, key = "█", country.Color
				style = style.Foreground(termColor(country.Color))
				if pm.fx.highlight == country.Feature {
					ch, key = "▓", "hl:"+country.Color
					style = style.Inherit(previewHighlight)
				}
			}
			if r == pm.cy && c == pm.cx {
				flush()
				b.WriteString(previewCursor.Render("+"))
				runKey = "\x00"
				continue
			}
			if key != runKey {
				flush()
				runKey, runStyle = key, style
			}
			run.WriteString(ch)
		}
		flush()
		if r < len(pm.grid)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (pm *previewModel) renderTooltip() string {
	if pm.fx.tooltip == nil {
		return previewTooltip.Render(StyleDim.Render("Hover a country"))
	}
	return previewTooltip.Render(pm.fx.tooltip.Text)
}

func (pm *previewModel) renderLegend() string {
	var rows [][]string
	for _, e := range pm.m.Scale.Legend() {
		rows = append(rows, []string{lipgloss.NewStyle().Foreground(termColor(e.Color)).Render("██"), e.Label})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Population").
		Rows(rows...).
		String()
}

// termColor converts a CSS rgb() color to hex. Other values pass through.
func termColor(css string) lipgloss.Color {
	var r, g, b int
	if _, err := fmt.Sscanf(css, "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
	}
	return lipgloss.Color(css)
}
