package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/internal/config"
	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
)

// defaultOutputBase names output files when neither --output nor a
// geometry file name gives one.
const defaultOutputBase = "popmap"

// mapFlags holds the flags shared by commands that draw a map. Only flags
// the user set override the config file.
type mapFlags struct {
	geometry     string
	population   string
	fetchTimeout time.Duration
	refresh      bool
	noCache      bool
	width        float64
	height       float64
	scale        float64
	legend       bool
	noMesh       bool
	noTooltips   bool
	description  string
}

func (f *mapFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.geometry, "geometry", "", "country shapes: GeoJSON file or URL (default "+pipeline.DefaultGeometryRef+")")
	fl.StringVar(&f.population, "population", "", "population table: TSV file or URL (default "+pipeline.DefaultPopulationRef+")")
	fl.DurationVar(&f.fetchTimeout, "fetch-timeout", pipeline.DefaultFetchTimeout, "timeout per source fetch")
	fl.BoolVar(&f.refresh, "refresh", false, "bypass cached source payloads")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the cache")
	fl.Float64Var(&f.width, "width", pipeline.DefaultWidth, "surface width")
	fl.Float64Var(&f.height, "height", pipeline.DefaultHeight, "surface height")
	fl.Float64Var(&f.scale, "scale", pipeline.DefaultScale, "projection scale")
	fl.BoolVar(&f.legend, "legend", false, "draw the color legend in the right margin")
	fl.BoolVar(&f.noMesh, "no-mesh", false, "omit the interior border mesh")
	fl.BoolVar(&f.noTooltips, "no-tooltips", false, "omit the hover script and tooltips")
	fl.StringVar(&f.description, "description", "", "caption shown above the map")
}

// apply copies the flags the user changed into opts.
func (f *mapFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fl := cmd.Flags()
	if fl.Changed("geometry") {
		opts.GeometryRef = f.geometry
	}
	if fl.Changed("population") {
		opts.PopulationRef = f.population
	}
	if fl.Changed("fetch-timeout") {
		opts.FetchTimeout = f.fetchTimeout
	}
	if fl.Changed("width") {
		opts.Width = f.width
	}
	if fl.Changed("height") {
		opts.Height = f.height
	}
	if fl.Changed("scale") {
		opts.Scale = f.scale
	}
	if fl.Changed("legend") {
		opts.Legend = f.legend
	}
	if fl.Changed("no-mesh") {
		opts.NoMesh = f.noMesh
	}
	if fl.Changed("no-tooltips") {
		opts.NoTooltips = f.noTooltips
	}
	if fl.Changed("description") {
		opts.Description = f.description
	}
	opts.Refresh = f.refresh
}

// renderOpts holds the render command flags.
type renderOpts struct {
	mapFlags
	output   string // output file (single format) or base path (multiple)
	formats  string // comma-separated formats
	pngScale float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the population map to files",
		Long: `Render joins the geometry and population sources and writes the map.

Formats: svg (default), html (web part panel), json (joined data), png, pdf.
PNG and PDF need rsvg-convert on PATH.`,
		Example: `  popmap render
  popmap render --legend -f svg,json -o out/world
  popmap render --geometry https://example.com/world.json -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			popts := baseOptions(cfg)
			opts.apply(cmd, &popts)
			if cmd.Flags().Changed("format") || len(popts.Formats) == 0 {
				popts.Formats = parseFormats(opts.formats)
			}
			if cmd.Flags().Changed("png-scale") {
				popts.PNGScale = opts.pngScale
			}
			if err := pipeline.ValidateFormats(popts.Formats); err != nil {
				return err
			}
			if opts.output == "-" && len(popts.Formats) > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "-o - writes one format to stdout, got %d (%s)",
					len(popts.Formats), strings.Join(popts.Formats, ","))
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), newPrinter(cmd), cfg, popts, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), html, json, png, pdf (comma-separated)")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG rasterisation factor")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if formats := pipeline.ParseFormats(s); len(formats) > 0 {
		return formats
	}
	return []string{pipeline.FormatSVG}
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, out printer, cfg config.Config, popts pipeline.Options, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	store, err := newCache(ctx, cfg.Cache, opts.noCache)
	if err != nil {
		return err
	}
	runner := c.newRunner(store, cfg.Cache)
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering map...")
	spinner.Start()
	watch := newStopwatch(logger)
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		if result != nil && len(result.Artifacts) > 0 {
			// Failure surfaces are still written so pages embedding the
			// file show the notice.
			if werr := writeArtifacts(stdout, out, result.Artifacts, popts.Formats, opts.output, popts.GeometryRef); werr != nil {
				logger.Warn("failure surface not written", "output", opts.output, "err", werr)
			}
		}
		return err
	}
	watch.done("rendered map", "formats", strings.Join(popts.Formats, ","))

	out.stats(result.Stats.Features, result.Stats.Matched, result.CacheInfo.RenderHit)
	if n := len(result.Join.Unmatched); n > 0 {
		logger.Debug("features without population", "count", n, "ids", strings.Join(result.Join.Unmatched, ","))
	}
	return writeArtifacts(stdout, out, result.Artifacts, popts.Formats, opts.output, popts.GeometryRef)
}

// writeArtifacts writes one file per format. A single format goes to
// output exactly (or to stdout for "-"); several formats share a base path.
func writeArtifacts(stdout io.Writer, out printer, artifacts map[string][]byte, formats []string, output, geometryRef string) error {
	if len(formats) == 1 && output == "-" {
		_, err := stdout.Write(artifacts[formats[0]])
		return err
	}

	formats = append([]string(nil), formats...)
	sort.Strings(formats)
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(output, geometryRef, format, len(formats) == 1)
		if err := writeFile(path, data); err != nil {
			return err
		}
		out.file(path, len(data))
	}
	return nil
}

// outputPath derives the file for one format. A single-format output with
// an extension is used as given.
func outputPath(output, geometryRef, format string, single bool) string {
	if single && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output, geometryRef) + "." + format
}

// basePath derives the base output path. If output is empty the base is
// the geometry file name without extension, or "popmap" for URLs. A known
// format extension on output is stripped.
func basePath(output, geometryRef string) string {
	if output == "" {
		if geometryRef == "" || strings.Contains(geometryRef, "://") {
			return defaultOutputBase
		}
		name := filepath.Base(geometryRef)
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
