// Package server serves one live topology surface over HTTP and WebSocket.
//
// The REST API loads and reads the model:
//
//	GET  /api/healthz
//	GET  /api/topology        current model as JSON
//	PUT  /api/topology        load a model (JSON or YAML), laid out and fitted
//	GET  /api/topology/svg    current frame
//	GET  /metrics             Prometheus metrics
//
// Clients connected to /ws drive the viewport (resize, zoom, fit, reset,
// pan, layout) and receive a "frame" message with the rendered SVG after
// every change, from any client.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"

	"github.com/matzehuels/topoview/pkg/buildinfo"
	perrors "github.com/matzehuels/topoview/pkg/errors"
	topoio "github.com/matzehuels/topoview/pkg/io"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/pipeline"
	"github.com/matzehuels/topoview/pkg/surface"
	"github.com/matzehuels/topoview/pkg/topology"
)

// maxModelBytes bounds PUT /api/topology bodies.
const maxModelBytes = 8 << 20

// Options configures a Server.
type Options struct {
	// Runner lays out loaded models. Nil means an uncached runner.
	Runner *pipeline.Runner
	// Render holds the layout defaults for loaded models and the initial
	// viewport size.
	Render      pipeline.Options
	Debounce    time.Duration
	Clock       clock.WithDelayedExecution
	CORSOrigins []string
	// Registry receives the metrics. Nil means a fresh registry.
	Registry *prometheus.Registry
	Logger   *log.Logger
}

// Server owns the live controller and its surface.
type Server struct {
	opts     Options
	logger   *log.Logger
	runner   *pipeline.Runner
	registry *prometheus.Registry

	controller *topology.Controller
	surface    *surface.Surface
	hub        *hub
	upgrader   *websocket.Upgrader
}

// New builds a server with an empty graph sized to the render options and
// installs its Prometheus hooks.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if err := opts.Render.ValidateAndSetDefaults(topology.Model{}); err != nil {
		return nil, err
	}
	opts.Render.Logger = opts.Logger
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		runner:   opts.Runner,
		registry: opts.Registry,
	}
	s.hub = newHub(s.logger)
	s.upgrader = newUpgrader(s.allowedOrigins())

	s.controller = pipeline.NewController(opts.Render)
	if err := s.controller.FromModel(topology.Model{}); err != nil {
		return nil, err
	}
	g := s.controller.Graph()
	g.SetBounds(*g.Bounds().Clone().SetSize(opts.Render.Width, opts.Render.Height))

	surfaceOpts := []surface.Option{
		surface.WithLogger(s.logger),
		surface.WithOnChange(s.pushFrame),
	}
	if opts.Debounce > 0 {
		surfaceOpts = append(surfaceOpts, surface.WithDebounce(opts.Debounce))
	}
	if opts.Clock != nil {
		surfaceOpts = append(surfaceOpts, surface.WithClock(opts.Clock))
	}
	s.surface = surface.New(s.controller, surfaceOpts...)
	s.surface.Mount()

	m := observability.NewMetrics(s.registry)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetKubeHooks(m)
	observability.SetSessionHooks(m)
	return s, nil
}

// Close disconnects all clients, stops pending resizes and removes the
// metrics hooks.
func (s *Server) Close() error {
	s.surface.Dispose()
	s.hub.closeAll()
	observability.Reset()
	return s.runner.Close()
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "clients": s.hub.count(), "build": buildinfo.Get()})
		})
		api.Get("/topology", s.getTopology)
		api.Put("/topology", s.putTopology)
		api.Get("/topology/svg", s.getSVG)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/ws", s.serveWS)
	return r
}

// allowedOrigins returns the configured CORS origins, defaulting to
// localhost on any port.
func (s *Server) allowedOrigins() []string {
	if len(s.opts.CORSOrigins) == 0 {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return s.opts.CORSOrigins
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) getTopology(w http.ResponseWriter, r *http.Request) {
	var m topology.Model
	_ = s.surface.Do(func(c *topology.Controller) error {
		m = c.ToModel()
		return nil
	})
	writeJSON(w, http.StatusOK, m)
}

// putTopology lays the model out with the server's render options, an
// optional ?layout= and ?direction=, loads it and fits it to the live
// viewport.
func (s *Server) putTopology(w http.ResponseWriter, r *http.Request) {
	m, err := topoio.ReadModel(http.MaxBytesReader(w, r.Body, maxModelBytes))
	if err != nil {
		writeError(w, err)
		return
	}
	opts := s.opts.Render
	opts.Layout = r.URL.Query().Get("layout")
	if opts.Layout == "" && (m.Graph == nil || m.Graph.Layout == "") {
		opts.Layout = s.opts.Render.Layout
	}
	if d := r.URL.Query().Get("direction"); d != "" {
		opts.Direction = layoutDirection(d)
	}
	laidOut, warnings, err := s.LoadModel(r.Context(), m, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":    len(laidOut.Nodes),
		"edges":    len(laidOut.Edges),
		"warnings": warnings,
	})
}

// LoadModel lays m out with opts, replaces the live tree with the result
// and pushes a frame to every client.
func (s *Server) LoadModel(ctx context.Context, m topology.Model, opts pipeline.Options) (topology.Model, []string, error) {
	laidOut, warnings, err := s.runner.Layout(ctx, m, opts)
	if err != nil {
		return topology.Model{}, nil, err
	}
	if err := s.load(laidOut); err != nil {
		return topology.Model{}, nil, err
	}
	s.pushFrame()
	return laidOut, warnings, nil
}

// load replaces the live tree, keeping the viewport size.
func (s *Server) load(m topology.Model) error {
	return s.surface.Do(func(c *topology.Controller) error {
		if err := c.FromModel(m); err != nil {
			s.logger.Warn("model loaded with problems", "err", err)
		}
		if c.Graph() == nil {
			return perrors.New(perrors.ErrCodeInvalidModel, "model has no usable graph")
		}
		if s.opts.Render.Padding >= 0 {
			c.Graph().Fit(s.opts.Render.Padding)
		}
		return nil
	})
}

func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.surface.Render(&buf); err != nil {
		writeError(w, perrors.Wrap(perrors.ErrCodeInternal, err, "render"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(buf.Bytes())
}

// frame renders the current tree as a frame message.
func (s *Server) frame() (serverMessage, error) {
	var buf bytes.Buffer
	if err := s.surface.Render(&buf); err != nil {
		return serverMessage{}, err
	}
	return serverMessage{Type: msgFrame, SVG: buf.String()}, nil
}

// pushFrame sends the current frame to every connected client.
func (s *Server) pushFrame() {
	msg, err := s.frame()
	if err != nil {
		s.logger.Error("render frame", "err", err)
		return
	}
	s.hub.broadcast(msg)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.closeAll()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status of the error's code.
func writeError(w http.ResponseWriter, err error) {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	writeJSON(w, perrors.HTTPStatus(err), map[string]any{
		"error": perrors.UserMessage(err),
		"code":  code,
	})
}
