// Package server serves population maps over HTTP.
//
// Routes:
//
//	GET  /               panel page, rendered through the web part
//	GET  /map.svg        SVG map; query overrides width, height, scale, legend, mesh, tooltips, refresh
//	GET  /api/map.json   joined map as JSON; same query overrides
//	GET  /api/schema     property pane schema, data version and current properties
//	POST /api/properties replace the web part properties
//	GET  /healthz        liveness, plus the cache backend when a pinger is set
package server

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/popmap/internal/config"
	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/pipeline"
	"github.com/matzehuels/popmap/pkg/webpart"
)

// PageRegion is the region name the panel page renders into.
const PageRegion = "main"

// MaxPropertiesBody bounds POST /api/properties.
const MaxPropertiesBody = 16 << 10

// Server holds the shared runner and the web part.
type Server struct {
	runner *pipeline.Runner
	geomap *webpart.GeoMap
	base   pipeline.Options
	cfg    config.Server
	logger *log.Logger
	pinger func(context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and render logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithConfig sets the listener timeouts.
func WithConfig(c config.Server) Option { return func(s *Server) { s.cfg = c } }

// WithPinger makes /healthz check a dependency (the redis cache).
func WithPinger(p func(context.Context) error) Option { return func(s *Server) { s.pinger = p } }

// New returns a server rendering with runner. base carries the configured
// sources and map settings; props seeds the web part.
func New(runner *pipeline.Runner, base pipeline.Options, props webpart.Properties, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		base:   base,
		cfg:    config.Default().Server,
		logger: runner.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.geomap = webpart.NewGeoMap(runner, base, props)
	return s
}

// GeoMap returns the served web part.
func (s *Server) GeoMap() *webpart.GeoMap { return s.geomap }

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if d := s.cfg.WriteTimeout.Duration; d > 0 {
		r.Use(middleware.Timeout(d))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handlePage)
	r.Get("/map.svg", s.handleMap(pipeline.FormatSVG, "image/svg+xml"))
	r.Route("/api", func(r chi.Router) {
		r.Get("/map.json", s.handleMap(pipeline.FormatJSON, "application/json"))
		r.Get("/schema", s.handleSchema)
		r.Post("/properties", s.handleProperties)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout.Duration,
		WriteTimeout:      s.cfg.WriteTimeout.Duration,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(errors.ErrCodeInternal, err, "listen %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.pinger != nil {
		if err := s.pinger(r.Context()); err != nil {
			s.logger.Warn("health check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handlePage renders the panel into a fresh region and disposes the handle
// once the markup is copied out.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	region, err := webpart.NewPage().Region(PageRegion)
	if err != nil {
		writeError(w, err)
		return
	}
	h, err := s.geomap.Render(r.Context(), region)
	if err != nil {
		writeError(w, err)
		return
	}
	panel := region.Content()
	_ = h.Dispose()

	status := http.StatusOK
	if h.Err() != nil {
		status = errors.HTTPStatus(h.Err())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, pageData{
		Title: "World population",
		Panel: template.HTML(panel),
	}); err != nil {
		s.logger.Error("page template", "err", err)
	}
}

// handleMap runs the pipeline for one format. Load failures still answer
// with the failure artifact, under the status of the error.
func (s *Server) handleMap(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := optionsFromQuery(s.base, r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		opts.Formats = []string{format}
		opts.Description = s.geomap.Properties().Description

		res, err := s.runner.Execute(r.Context(), opts)
		var body []byte
		if res != nil {
			body = res.Artifacts[format]
		}
		if body == nil {
			writeError(w, err)
			return
		}

		status := http.StatusOK
		if err != nil {
			status = errors.HTTPStatus(err)
		} else if res.CacheInfo.RenderHit {
			w.Header().Set("X-Cache", "hit")
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

type schemaResponse struct {
	DataVersion string             `json:"dataVersion"`
	Properties  webpart.Properties `json:"properties"`
	Schema      webpart.Schema     `json:"schema"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemaResponse{
		DataVersion: s.geomap.DataVersion(),
		Properties:  s.geomap.Properties(),
		Schema:      s.geomap.ConfigurationSchema(),
	})
}

func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	var p webpart.Properties
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxPropertiesBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode properties"))
		return
	}
	if err := s.geomap.SetProperties(p); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("properties updated", "description_len", len(p.Description))
	writeJSON(w, http.StatusOK, s.geomap.Properties())
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
