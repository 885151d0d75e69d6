package choropleth

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/join"
	"github.com/matzehuels/popmap/pkg/population"
)

func square(lon0, lat0, lon1, lat1 float64) orb.Polygon {
	return orb.Polygon{{{lon0, lat0}, {lon1, lat0}, {lon1, lat1}, {lon0, lat1}, {lon0, lat0}}}
}

func fixture() []*geo.Feature {
	fs := []*geo.Feature{
		{ID: "FRA", Name: "France", Geometry: square(-4, 43, 7, 50)},
		{ID: "DEU", Name: "Germany", Geometry: square(7, 43, 15, 50)},
		{ID: "USA", Name: "United States", Geometry: orb.MultiPolygon{square(-124, 25, -67, 49), square(-160, 55, -141, 70)}},
		{ID: "ATA", Name: "Antarctica", Geometry: square(-60, -80, -50, -70)},
	}
	join.Join(fs, population.Index{"FRA": 67e6, "DEU": 83e6, "USA": 331e6})
	return fs
}

func TestDefaultSurface(t *testing.T) {
	s := DefaultSurface()
	w, h := s.Inner()
	if w != 560 || h != 500 {
		t.Errorf("Inner() = %v x %v, want 560 x 500", w, h)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	bad := Surface{Width: 300, Height: 500, Margin: Margin{Right: 400}}
	if err := bad.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Validate() = %v, want INVALID_INPUT", err)
	}
	if _, err := Build(fixture(), WithSurface(bad)); err == nil {
		t.Error("Build with bad surface should fail")
	}
}

func TestSurfaceValidateNonFinite(t *testing.T) {
	for _, s := range []Surface{
		{Width: math.NaN(), Height: 500},
		{Width: 960, Height: math.Inf(1)},
		{Width: 960, Height: 500, Margin: Margin{Top: math.Inf(-1)}},
	} {
		if err := s.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Validate(%+v) = %v, want INVALID_INPUT", s, err)
		}
	}
}

func TestBuild(t *testing.T) {
	m, err := Build(fixture())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Countries) != 4 {
		t.Fatalf("len(Countries) = %d, want 4", len(m.Countries))
	}

	tests := []struct {
		id     string
		color  string
		bucket int
	}{
		{"FRA", "rgb(8,81,156)", 7},
		{"USA", "rgb(8,48,107)", 8},
		{"ATA", "rgb(247,251,255)", -1},
	}
	for _, tt := range tests {
		c := m.Country(tt.id)
		if c == nil {
			t.Fatalf("Country(%s) = nil", tt.id)
		}
		if c.Color != tt.color || c.Bucket != tt.bucket {
			t.Errorf("%s: color=%s bucket=%d, want %s %d", tt.id, c.Color, c.Bucket, tt.color, tt.bucket)
		}
		if !strings.HasPrefix(c.D, "M") || !strings.HasSuffix(c.D, "Z") {
			t.Errorf("%s: D = %q", tt.id, c.D)
		}
	}

	if got := strings.Count(m.Country("USA").D, "M"); got != 2 {
		t.Errorf("USA subpaths = %d, want 2", got)
	}
	if m.Projection.Translate() != [2]float64{280, 250} {
		t.Errorf("translate = %v, want centre of 560x500", m.Projection.Translate())
	}
	if m.Country("XXX") != nil {
		t.Error("Country(XXX) should be nil")
	}
}

func TestBuildMesh(t *testing.T) {
	m, err := Build(fixture())
	if err != nil {
		t.Fatal(err)
	}
	// FRA and DEU share the meridian at 7E.
	if len(m.Mesh) == 0 || m.MeshD == "" {
		t.Fatalf("mesh is empty")
	}
	if strings.Contains(m.MeshD, "Z") {
		t.Errorf("mesh path should be open: %q", m.MeshD)
	}

	m, err = Build(fixture(), WithoutMesh())
	if err != nil {
		t.Fatal(err)
	}
	if m.MeshD != "" {
		t.Errorf("WithoutMesh: MeshD = %q", m.MeshD)
	}
}

func TestHitTest(t *testing.T) {
	m, err := Build(fixture())
	if err != nil {
		t.Fatal(err)
	}

	paris := m.Projection.Point(2.35, 46.5)
	if c := m.HitTest(paris[0], paris[1]); c == nil || c.Feature.ID != "FRA" {
		t.Errorf("HitTest(paris) = %v, want FRA", c)
	}

	alaska := m.Projection.Point(-150, 62)
	if c := m.HitTest(alaska[0], alaska[1]); c == nil || c.Feature.ID != "USA" {
		t.Errorf("HitTest(alaska) = %v, want USA", c)
	}

	ocean := m.Projection.Point(-30, 0)
	if c := m.HitTest(ocean[0], ocean[1]); c != nil {
		t.Errorf("HitTest(ocean) = %s, want nil", c.Feature.ID)
	}
}

func TestBuildOptions(t *testing.T) {
	m, err := Build(fixture(),
		WithSurface(Surface{Width: 800, Height: 400}),
		WithProjectionScale(150),
		WithRotate([3]float64{0, 0, 0}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if m.Projection.Scale() != 150 {
		t.Errorf("scale = %v", m.Projection.Scale())
	}
	if p := m.Projection.Point(0, 0); p != (orb.Point{400, 200}) {
		t.Errorf("Point(0,0) = %v, want centre", p)
	}
}

func TestEmpty(t *testing.T) {
	m := Empty(DefaultSurface())
	if len(m.Countries) != 0 || m.HitTest(10, 10) != nil {
		t.Error("Empty map should have no countries")
	}
	if len(m.Features()) != 0 {
		t.Error("Features() should be empty")
	}
}
