package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/observability"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,json,png", []string{"svg", "json", "png"}},
		{"blanks and case", " HTML, ,pdf", []string{"html", "pdf"}},
		{"only commas", ",,", []string{"svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
				t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, geometry, want string
	}{
		{"", "data/world_countries.json", "world_countries"},
		{"", "https://example.com/world.json", "popmap"},
		{"", "", "popmap"},
		{"out/map.svg", "world.json", "out/map"},
		{"out/map", "world.json", "out/map"},
		{"out/map.v2", "world.json", "out/map.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.geometry); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.geometry, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output string
		format string
		single bool
		want   string
	}{
		{"map.svg", "svg", true, "map.svg"},
		{"map.image", "png", true, "map.image"},
		{"map.svg", "json", false, "map.json"},
		{"out/map", "svg", true, "out/map.svg"},
		{"", "html", true, "world.html"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, "world.json", tt.format, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %s, %v) = %q, want %q", tt.output, tt.format, tt.single, got, tt.want)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "world")
	_, err := execute(t, "render",
		"--geometry", "testdata/world.json",
		"--population", "testdata/population.tsv",
		"--no-cache", "--legend",
		"-f", "svg,json,html",
		"-o", base)
	if err != nil {
		t.Fatal(err)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), `data-id="FRA"`) {
		t.Error("svg should draw FRA")
	}
	for _, ext := range []string{".json", ".html"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s output: %v", ext, err)
		}
	}
}

func TestRenderCommandLoadFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.svg")
	_, err := execute(t, "render",
		"--geometry", "testdata/missing.json",
		"--population", "testdata/population.tsv",
		"--no-cache", "-o", out)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("failure surface not written: %v", readErr)
	}
	if !strings.Contains(string(data), "data-error=") {
		t.Error("failure surface should carry data-error")
	}
}

func TestRenderCommandInvalidFormat(t *testing.T) {
	_, err := execute(t, "render", "--no-cache", "-f", "gif")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestRenderCommandStdout(t *testing.T) {
	out, err := execute(t, "render",
		"--geometry", "testdata/world.json",
		"--population", "testdata/population.tsv",
		"--no-cache", "-f", "svg", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "<svg ") {
		t.Errorf("stdout should hold only the svg, got %.40q", out)
	}
}

func TestRenderCommandStdoutNeedsOneFormat(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := execute(t, "render", "--no-cache", "-f", "svg,json", "-o", "-")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestRenderFailureSurfaceWriteError(t *testing.T) {
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(observability.Reset)

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	root.SetArgs([]string{"render",
		"--geometry", "testdata/missing.json",
		"--population", "testdata/population.tsv",
		"--no-cache", "-o", filepath.Join(blocker, "map.svg")})
	if err := root.Execute(); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if !strings.Contains(logs.String(), "failure surface not written") {
		t.Errorf("write error should be logged, got:\n%s", logs.String())
	}
}
