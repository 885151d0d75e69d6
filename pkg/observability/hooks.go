// Package observability carries pipeline, cache and fetch events out of the
// library packages.
//
// Each event family has an interface and a no-op default. A binary installs
// its implementations once, before work starts, and library code emits
// through the accessors:
//
//	observability.SetPipelineHooks(metrics{})
//	...
//	observability.Pipeline().OnJoin(ctx, matched, unmatched)
//
// Reads and writes of the registry are lock-free; hooks themselves must be
// safe for concurrent use.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks sees a map build: the source load, the population join and
// each artifact render.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, geometryRef, populationRef string)
	OnLoadComplete(ctx context.Context, features, records int, duration time.Duration, err error)

	// OnJoin reports how many features got a population figure.
	OnJoin(ctx context.Context, matched, unmatched int)

	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks sees cache lookups and writes. keyType is the key family
// ("source", "artifact").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks sees remote source fetches.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError is a transport failure; no response arrived.
	OnError(ctx context.Context, method, host, path string, err error)

	// OnRetry fires before attempt (1 for the first retry) of url.
	OnRetry(ctx context.Context, url string, attempt int)
}

type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string, string)                         {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, int, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnJoin(context.Context, int, int)                                    {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRetry(context.Context, string, int)                                   {}

// slot holds one registered hook set, falling back to def when empty.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) load() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return s.def
}

func (s *slot[T]) store(h T) { s.p.Store(&h) }
func (s *slot[T]) clear()    { s.p.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpSlot     = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks installs h. A nil h keeps the current hooks.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.store(h)
	}
}

// SetCacheHooks installs h. A nil h keeps the current hooks.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.store(h)
	}
}

// SetHTTPHooks installs h. A nil h keeps the current hooks.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.store(h)
	}
}

func Pipeline() PipelineHooks { return pipelineSlot.load() }
func Cache() CacheHooks       { return cacheSlot.load() }
func HTTP() HTTPHooks         { return httpSlot.load() }

// Reset puts every family back to its no-op default. Tests call it in
// cleanup.
func Reset() {
	pipelineSlot.clear()
	cacheSlot.clear()
	httpSlot.clear()
}
