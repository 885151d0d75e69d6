// Package pkg provides the core libraries for popmap, a world population
// choropleth.
//
// # Overview
//
// popmap joins country shapes with a population table and draws every
// country shaded by its population. The pkg directory is organized into
// four areas:
//
//  1. Data: [geo], [population], [source] and [join] decode and merge the
//     two inputs.
//  2. Map: [scale], [projection], [mesh] and [render/choropleth] color and
//     lay out the shapes; [interaction] holds the hover behaviour.
//  3. Output: [render/sink] writes SVG, the web part panel and JSON;
//     [render] converts SVG to PNG and PDF.
//  4. Orchestration: [pipeline] runs load, join, build and render with
//     caching; [webpart] embeds the result in page regions.
//
// # Architecture
//
// The data flow:
//
//	GeoJSON countries ─┐
//	                   ├─ [source] (fetched concurrently, cached)
//	population TSV  ───┘
//	         ↓
//	    [join] (population onto features, by id)
//	         ↓
//	    [render/choropleth] (projection, threshold colors, border mesh)
//	         ↓
//	    SVG/HTML/JSON/PNG/PDF output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    GeometryRef:   "world_countries.json",
//	    PopulationRef: "world_population.tsv",
//	    Formats:       []string{pipeline.FormatSVG},
//	    Legend:        true,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("map.svg", res.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Infrastructure
//
// [cache] stores fetched sources and rendered artifacts in files or redis.
// [httputil] fetches remote sources with retries. [errors] carries the
// machine-readable failure codes every layer reports. [observability]
// exposes hooks for metrics and tracing.
//
// # Testing
//
//	go test ./pkg/...                      # All tests
//	go test ./pkg/render/choropleth/...    # Specific package
//	go test -run Example ./pkg/...         # Examples only
//	POPMAP_TEST_REDIS=localhost:6379 go test ./pkg/cache/
//
// [geo]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/geo
// [population]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/population
// [source]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/source
// [join]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/join
// [scale]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/scale
// [projection]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/projection
// [mesh]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/mesh
// [interaction]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/interaction
// [render]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/render
// [render/choropleth]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/render/choropleth
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/pipeline
// [webpart]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/webpart
// [cache]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/popmap/pkg/observability
package pkg
