package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/popmap/pkg/observability"
)

// logHooks reports pipeline, cache and fetch events at debug level.
type logHooks struct {
	logger *log.Logger
}

// registerHooks installs logHooks for the process.
func registerHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnLoadStart(_ context.Context, geometryRef, populationRef string) {
	h.logger.Debug("load start", "geometry", geometryRef, "population", populationRef)
}

func (h logHooks) OnLoadComplete(_ context.Context, features, records int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "duration", d, "err", err)
		return
	}
	h.logger.Debug("load done", "features", features, "records", records, "duration", d)
}

func (h logHooks) OnJoin(_ context.Context, matched, unmatched int) {
	h.logger.Debug("join", "matched", matched, "unmatched", unmatched)
}

func (h logHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h logHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render done", "format", format, "bytes", size, "duration", d, "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string)  { h.logger.Debug("cache hit", "type", keyType) }
func (h logHooks) OnCacheMiss(_ context.Context, keyType string) { h.logger.Debug("cache miss", "type", keyType) }
func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("fetch", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("fetched", "host", host, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("fetch error", "host", host, "path", path, "err", err)
}

func (h logHooks) OnRetry(_ context.Context, url string, attempt int) {
	h.logger.Warn("retrying fetch", "url", url, "attempt", attempt)
}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
	_ observability.HTTPHooks     = logHooks{}
)
