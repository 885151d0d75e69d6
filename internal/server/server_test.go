package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/webpart"
)

func testServer(t *testing.T, base pipeline.Options, opts ...Option) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, nil, logger)
	if base.GeometryRef == "" {
		base.GeometryRef = "testdata/world.json"
	}
	if base.PopulationRef == "" {
		base.PopulationRef = "testdata/population.tsv"
	}
	return New(runner, base, webpart.Properties{Description: "World"}, append([]Option{WithLogger(logger)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	down := testServer(t, pipeline.Options{}, WithPinger(func(context.Context) error {
		return fmt.Errorf("connection refused")
	}))
	rec = do(t, down.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz with failing pinger = %d", rec.Code)
	}
}

func TestMapSVG(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/map.svg?legend=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"<svg", `data-id="FRA"`, `data-id="USA"`} {
		if !strings.Contains(body, want) {
			t.Errorf("svg missing %s", want)
		}
	}
}

func TestMapSVGLoadFailure(t *testing.T) {
	s := testServer(t, pipeline.Options{GeometryRef: "testdata/missing.json"})
	rec := do(t, s.Handler(), http.MethodGet, "/map.svg", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "data-error=") {
		t.Error("failure surface should carry data-error")
	}
}

func TestMapBadQuery(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	for _, target := range []string{
		"/map.svg?width=wide",
		"/map.svg?width=NaN",
		"/map.svg?height=Inf",
		"/map.svg?scale=-Inf",
		"/api/map.json?scale=NaN",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodGet, target, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			var e errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
				t.Fatal(err)
			}
			if e.Code != "INVALID_INPUT" {
				t.Errorf("code = %q", e.Code)
			}
		})
	}
}

func TestMapNonFiniteBase(t *testing.T) {
	s := testServer(t, pipeline.Options{Scale: math.Inf(1)})
	rec := do(t, s.Handler(), http.MethodGet, "/map.svg", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMapJSON(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/map.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var doc struct {
		Description string `json:"description"`
		Countries   []struct {
			ID string `json:"id"`
		} `json:"countries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Countries) != 3 {
		t.Errorf("countries = %d, want 3", len(doc.Countries))
	}
	if doc.Description != "World" {
		t.Errorf("description = %q", doc.Description)
	}
}

func TestSchema(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/api/schema", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got schemaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := schemaResponse{
		DataVersion: webpart.DataVersion,
		Properties:  webpart.Properties{Description: "World"},
		Schema:      webpart.DefaultSchema(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestPropertiesThenPage(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/properties", `{"description":"<b>Pop</b>"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("post properties = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("page = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<div class="geoMap"`) {
		t.Error("page should embed the panel")
	}
	if !strings.Contains(body, "&lt;b&gt;Pop&lt;/b&gt;") || strings.Contains(body, "<b>Pop</b>") {
		t.Error("description must be escaped")
	}

	// Each page view renders into its own region, so a second view works.
	if rec := do(t, h, http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Errorf("second page = %d", rec.Code)
	}
}

func TestPropertiesRejected(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"description":`},
		{"unknown field", `{"title":"x"}`},
		{"too long", fmt.Sprintf(`{"description":%q}`, strings.Repeat("x", webpart.MaxDescriptionLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, "/api/properties", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
	if got := s.GeoMap().Properties().Description; got != "World" {
		t.Errorf("rejected update changed description to %q", got)
	}
}

func TestPageLoadFailure(t *testing.T) {
	s := testServer(t, pipeline.Options{PopulationRef: "testdata/missing.tsv"})
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Map unavailable") {
		t.Error("page should show the failure panel")
	}
}

func TestOptionsFromQuery(t *testing.T) {
	tests := []struct {
		query   string
		check   func(pipeline.Options) bool
		wantErr bool
	}{
		{"width=800&height=400", func(o pipeline.Options) bool { return o.Width == 800 && o.Height == 400 }, false},
		{"legend=1", func(o pipeline.Options) bool { return o.Legend }, false},
		{"mesh=false", func(o pipeline.Options) bool { return o.NoMesh }, false},
		{"mesh=true", func(o pipeline.Options) bool { return !o.NoMesh }, false},
		{"tooltips=0", func(o pipeline.Options) bool { return o.NoTooltips }, false},
		{"refresh=true", func(o pipeline.Options) bool { return o.Refresh }, false},
		{"other=x", func(o pipeline.Options) bool { return o.Width == 0 }, false},
		{"scale=big", nil, true},
		{"scale=NaN", nil, true},
		{"width=+Inf", nil, true},
		{"legend=maybe", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := optionsFromQuery(pipeline.Options{}, q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(got) {
				t.Errorf("options = %+v", got)
			}
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := testServer(t, pipeline.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe after cancel = %v", err)
	}
}
