package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popmap/pkg/cache"
	"github.com/matzehuels/popmap/pkg/join"
	"github.com/matzehuels/popmap/pkg/observability"
	"github.com/matzehuels/popmap/pkg/render/choropleth"
	"github.com/matzehuels/popmap/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state, so one Runner may serve concurrent
// runs with different options.
type Runner struct {
	Loader *source.Loader
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil loader gets a default [source.Loader]
// sharing c; a nil cache disables artifact caching; a nil keyer uses
// [cache.DefaultKeyer].
func NewRunner(loader *source.Loader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if loader == nil {
		loader = source.NewLoader(source.WithCache(c), source.WithKeyer(keyer), source.WithLogger(logger))
	}
	return &Runner{Loader: loader, Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the full pipeline. On a load failure the returned Result
// carries failure artifacts and the error is returned alongside it.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	res := r.Load(ctx, opts)
	result.Stats.LoadTime = time.Since(loadStart)
	if res.Err != nil {
		opts.Logger.Error("load failed", "geometry", opts.GeometryRef, "population", opts.PopulationRef, "err", res.Err)
		result.Artifacts = RenderFailure(res.Err, opts)
		return result, fmt.Errorf("load: %w", res.Err)
	}
	result.Loaded = res.Loaded

	// Stage 2+3: Join and build
	buildStart := time.Now()
	m, stats, err := r.Build(ctx, res.Loaded, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Map, result.Join = m, stats
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Features = stats.Features
	result.Stats.Matched = stats.Matched

	opts.Logger.Info("built map",
		"features", stats.Features,
		"matched", stats.Matched,
		"unmatched", len(stats.Unmatched),
		"duration", result.Stats.BuildTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, res.Loaded.Digest, m, stats, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load fetches both sources through the runner's loader, honoring the
// per-run refresh and timeout settings.
func (r *Runner) Load(ctx context.Context, opts Options) source.Result {
	loader := r.Loader
	if opts.Refresh || opts.FetchTimeout != 0 {
		loader = loader.With(source.WithRefresh(opts.Refresh), source.WithFetchTimeout(opts.FetchTimeout))
	}
	return loader.Load(ctx, opts.GeometryRef, opts.PopulationRef)
}

// Build joins the population onto the features and lays out the map.
func (r *Runner) Build(ctx context.Context, loaded *source.Loaded, opts Options) (*choropleth.Map, join.Stats, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, join.Stats{}, err
	}
	features := loaded.Geometry.Features
	stats := join.Join(features, loaded.Population)
	observability.Pipeline().OnJoin(ctx, stats.Matched, len(stats.Unmatched))
	if len(stats.Unmatched) > 0 {
		r.logger(opts).Debug("features without population", "ids", stats.Unmatched)
	}

	m, err := choropleth.Build(features, opts.BuildOptions()...)
	if err != nil {
		return nil, stats, err
	}
	return m, stats, nil
}

// RenderWithCacheInfo renders every requested format, serving cacheable
// formats from the artifact cache when all of them are present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, digest string, m *choropleth.Map, stats join.Stats, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte)
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Cacheable(format) || opts.Refresh {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(digest, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[format] = data
		} else {
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	sub := opts
	sub.Formats = missing
	rendered, err := Render(ctx, m, stats, sub)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		if !opts.Cacheable(format) {
			continue
		}
		key := r.Keyer.ArtifactKey(digest, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.logger(opts).Warn("artifact cache write failed", "format", format, "err", err)
		}
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil || opts.Logger == discard {
		opts.Logger = r.Logger
	}
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil && opts.Logger != discard {
		return opts.Logger
	}
	return r.Logger
}
