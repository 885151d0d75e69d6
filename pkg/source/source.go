// Package source loads the geometry and population resources a map is
// built from.
//
// Both resources are fetched concurrently. [Loader.Load] returns only after
// both fetches have finished, and its [Result] holds either both decoded
// payloads or the first error:
//
//	l := source.NewLoader(source.WithCache(c))
//	res := l.Load(ctx, "world_countries.json", "world_population.tsv")
//	if res.Err != nil {
//	    return res.Err
//	}
//	stats := join.Join(res.Loaded.Geometry.Features, res.Loaded.Population)
//
// References may be http(s) URLs, file:// URLs or plain paths. Remote
// payloads are cached; local files are always read fresh.
package source

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/popmap/pkg/cache"
	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/geo"
	"github.com/matzehuels/popmap/pkg/httputil"
	"github.com/matzehuels/popmap/pkg/observability"
	"github.com/matzehuels/popmap/pkg/population"
)

// DefaultFetchTimeout bounds each of the two fetches.
const DefaultFetchTimeout = 30 * time.Second

// Loaded holds both decoded resources.
type Loaded struct {
	Geometry        *geo.Collection
	Records         []population.Record
	Population      population.Index
	PopulationStats population.Stats
	// Digest identifies the raw payloads; artifacts built from equal inputs
	// share a digest.
	Digest string
}

// Result is the outcome of the load barrier. Exactly one of Loaded and Err
// is set.
type Result struct {
	Loaded *Loaded
	Err    error
}

// OK reports whether both resources loaded.
func (r Result) OK() bool { return r.Err == nil && r.Loaded != nil }

// Loader fetches and decodes sources.
type Loader struct {
	client  *httputil.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	timeout time.Duration
	refresh bool
	logger  *log.Logger
}

// Option configures a [Loader].
type Option func(*Loader)

// WithClient sets the HTTP client for remote references.
func WithClient(c *httputil.Client) Option { return func(l *Loader) { l.client = c } }

// WithCache caches remote payloads in c.
func WithCache(c cache.Cache) Option { return func(l *Loader) { l.cache = c } }

// WithKeyer overrides the cache key scheme.
func WithKeyer(k cache.Keyer) Option { return func(l *Loader) { l.keyer = k } }

// WithTTL sets how long remote payloads stay cached.
func WithTTL(d time.Duration) Option { return func(l *Loader) { l.ttl = d } }

// WithFetchTimeout bounds each fetch. Zero or negative disables the bound.
func WithFetchTimeout(d time.Duration) Option { return func(l *Loader) { l.timeout = d } }

// WithRefresh bypasses cache reads; fresh payloads are still written back.
func WithRefresh(refresh bool) Option { return func(l *Loader) { l.refresh = refresh } }

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger *log.Logger) Option { return func(l *Loader) { l.logger = logger } }

// NewLoader returns a Loader with no cache and a 30s fetch timeout.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		ttl:     cache.TTLSource,
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = httputil.NewClient()
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	return l
}

// With returns a copy of l with opts applied.
func (l *Loader) With(opts ...Option) *Loader {
	cp := *l
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Load fetches geometryRef and populationRef concurrently and decodes them.
// The first failure cancels the other fetch.
func (l *Loader) Load(ctx context.Context, geometryRef, populationRef string) Result {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, geometryRef, populationRef)
	start := time.Now()

	loaded, err := l.load(ctx, geometryRef, populationRef)

	features, records := 0, 0
	if loaded != nil {
		features, records = len(loaded.Geometry.Features), len(loaded.Records)
	}
	hooks.OnLoadComplete(ctx, features, records, time.Since(start), err)
	if err != nil {
		return Result{Err: err}
	}
	l.logger.Debug("sources loaded", "features", features, "records", records, "duration", time.Since(start))
	return Result{Loaded: loaded}
}

func (l *Loader) load(ctx context.Context, geometryRef, populationRef string) (*Loaded, error) {
	if err := errors.ValidateSourceRef(geometryRef); err != nil {
		return nil, err
	}
	if err := errors.ValidateSourceRef(populationRef); err != nil {
		return nil, err
	}

	var (
		geoRaw, popRaw []byte
		out            Loaded
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := l.Fetch(gctx, geometryRef)
		if err != nil {
			return err
		}
		coll, err := geo.Decode(data)
		if err != nil {
			return errors.Wrap(errors.ErrCodeParse, err, "geometry %s", geometryRef)
		}
		geoRaw, out.Geometry = data, coll
		return nil
	})
	g.Go(func() error {
		data, err := l.Fetch(gctx, populationRef)
		if err != nil {
			return err
		}
		records, stats, err := population.ParseTSV(bytes.NewReader(data))
		if err != nil {
			return errors.Wrap(errors.ErrCodeParse, err, "population %s", populationRef)
		}
		if stats.Skipped > 0 {
			l.logger.Warn("skipped population rows", "ref", populationRef, "skipped", stats.Skipped)
		}
		if stats.Duplicates > 0 {
			l.logger.Warn("duplicate population ids, last value wins", "ref", populationRef, "duplicates", stats.Duplicates)
		}
		popRaw, out.Records, out.PopulationStats = data, records, stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Population = population.NewIndex(out.Records)
	out.Digest = cache.HashAll(geoRaw, popRaw)
	return &out, nil
}

// Fetch returns the raw bytes behind ref, consulting the cache for remote
// references.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := errors.ValidateSourceRef(ref); err != nil {
		return nil, err
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	path, remote, err := resolve(ref)
	if err != nil {
		return nil, err
	}
	if !remote {
		return readFile(path)
	}

	key := l.keyer.SourceKey(ref)
	if !l.refresh {
		if data, ok, err := l.cache.Get(ctx, key); err == nil && ok {
			l.logger.Debug("source cache hit", "ref", ref)
			return data, nil
		} else if err != nil {
			l.logger.Warn("source cache read failed", "ref", ref, "err", err)
		}
	}

	data, err := l.client.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.logger.Warn("source cache write failed", "ref", ref, "err", err)
	}
	return data, nil
}

// resolve returns the filesystem path for local refs, or remote == true.
func resolve(ref string) (path string, remote bool, err error) {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "", true, nil
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", false, errors.Wrap(errors.ErrCodeInvalidSource, err, "bad file url %q", ref)
		}
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/path
			p = u.Host + p
		}
		return p, false, nil
	default:
		return ref, false, nil
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s not found", path)
	}
	return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "read %s", path)
}
