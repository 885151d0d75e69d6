package webpart

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
)

func newTestMap(t *testing.T, geoRef string) *GeoMap {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, nil, logger)
	return NewGeoMap(runner, pipeline.Options{
		GeometryRef:   geoRef,
		PopulationRef: "testdata/population.tsv",
	}, Properties{Description: "World population"})
}

func TestSchema(t *testing.T) {
	g := newTestMap(t, "testdata/world.json")
	if g.DataVersion() != "1.0" {
		t.Errorf("DataVersion = %q", g.DataVersion())
	}

	data, err := json.Marshal(g.ConfigurationSchema())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"pages":[{"header":{"description":"Configure the population map"},` +
		`"groups":[{"groupName":"Basic Settings","groupFields":[` +
		`{"type":"TextField","targetProperty":"description","label":"Description Field"}]}]}]}`
	if string(data) != want {
		t.Errorf("schema json:\n got %s\nwant %s", data, want)
	}

	fields := g.ConfigurationSchema().Fields()
	if diff := cmp.Diff([]Field{{Type: FieldTextField, TargetProperty: "description", Label: "Description Field"}}, fields); diff != "" {
		t.Errorf("Fields mismatch:\n%s", diff)
	}
}

func TestRenderFillsRegion(t *testing.T) {
	g := newTestMap(t, "testdata/world.json")
	region, err := NewPage().Region("main")
	if err != nil {
		t.Fatal(err)
	}

	h, err := g.Render(context.Background(), region)
	if err != nil {
		t.Fatal(err)
	}
	if h.Err() != nil {
		t.Fatalf("render error: %v", h.Err())
	}
	content := string(region.Content())
	for _, want := range []string{
		`<div class="geoMap" id="` + h.ID() + `-panel">`,
		`<p class="description">World population</p>`,
		`<svg xmlns="http://www.w3.org/2000/svg" id="` + h.ID() + `"`,
		`data-id="FRA"`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("region content missing %q", want)
		}
	}
	if h.Result() == nil || h.Result().Stats.Matched != 2 {
		t.Error("handle should expose the pipeline result")
	}
}

func TestRegionOwnership(t *testing.T) {
	g := newTestMap(t, "testdata/world.json")
	region, _ := NewPage().Region("main")
	ctx := context.Background()

	h1, err := g.Render(ctx, region)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Render(ctx, region); !errors.Is(err, errors.ErrCodeRegionBusy) {
		t.Fatalf("second render err = %v, want REGION_BUSY", err)
	}

	if err := h1.Dispose(); err != nil {
		t.Fatal(err)
	}
	if region.Busy() || len(region.Content()) != 0 {
		t.Error("dispose should clear and release the region")
	}
	if err := h1.Dispose(); !errors.Is(err, errors.ErrCodeDisposed) {
		t.Errorf("second dispose err = %v, want DISPOSED", err)
	}

	h2, err := g.Render(ctx, region)
	if err != nil {
		t.Fatalf("render after dispose: %v", err)
	}
	if h2.ID() == h1.ID() {
		t.Error("surface ids must be unique per render")
	}
	// A stale handle must not clear the new owner's content.
	h1.region.release(h1)
	if !region.Busy() {
		t.Error("stale release took the region from its owner")
	}
}

func TestRenderConcurrentSingleOwner(t *testing.T) {
	g := newTestMap(t, "testdata/world.json")
	region, _ := NewPage().Region("main")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		won  int
		busy int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Render(context.Background(), region)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, errors.ErrCodeRegionBusy) {
				busy++
			}
		}()
	}
	wg.Wait()
	if won != 1 || busy != 7 {
		t.Errorf("won=%d busy=%d, want 1 and 7", won, busy)
	}
}

func TestRenderFailure(t *testing.T) {
	g := newTestMap(t, "testdata/missing.json")
	region, _ := NewPage().Region("main")

	h, err := g.Render(context.Background(), region)
	if err != nil {
		t.Fatalf("lifecycle error: %v", err)
	}
	if !errors.Is(h.Err(), errors.ErrCodeNotFound) {
		t.Errorf("Err = %v, want NOT_FOUND", h.Err())
	}
	content := string(region.Content())
	if !strings.Contains(content, `data-error=`) || !strings.Contains(content, `<p class="error">`) {
		t.Errorf("failure panel missing: %s", content)
	}
	if !region.Busy() {
		t.Error("failed render still owns the region until disposed")
	}
}

func TestSetProperties(t *testing.T) {
	g := newTestMap(t, "testdata/world.json")
	if err := g.SetProperties(Properties{Description: "<b>bold</b>"}); err != nil {
		t.Fatal(err)
	}
	region, _ := NewPage().Region("main")
	h, _ := g.Render(context.Background(), region)
	defer h.Dispose()
	if !strings.Contains(string(region.Content()), "&lt;b&gt;bold&lt;/b&gt;") {
		t.Error("description should be escaped")
	}

	long := strings.Repeat("x", MaxDescriptionLength+1)
	if err := g.SetProperties(Properties{Description: long}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("long description err = %v", err)
	}
	if g.Properties().Description != "<b>bold</b>" {
		t.Error("rejected properties must not be applied")
	}
}

func TestPageRegions(t *testing.T) {
	p := NewPage()
	a, _ := p.Region("b-side")
	b, _ := p.Region("b-side")
	if a != b {
		t.Error("Region should return the same region for a name")
	}
	p.Region("a-side")
	if diff := cmp.Diff([]string{"a-side", "b-side"}, p.Names()); diff != "" {
		t.Errorf("Names mismatch:\n%s", diff)
	}
	if _, err := p.Region("bad name!"); err == nil {
		t.Error("invalid region name should fail")
	}
}
