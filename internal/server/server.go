// Package server exposes structview engines over HTTP.
//
// Clients create a session, post frames to it one at a time (or as a
// sequence), and read back the resulting scene as JSON or any sink
// format. Each session owns its own engine, so leaks accumulate per
// session exactly as they would in a local viewer. A stateless render
// endpoint replays a whole frame file through the cached pipeline.
//
// # Routes
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/v1/layouts
//	POST   /api/v1/render                      frame sequence → artifact
//	POST   /api/v1/sessions                    create
//	GET    /api/v1/sessions/{id}               info
//	DELETE /api/v1/sessions/{id}
//	POST   /api/v1/sessions/{id}/frames        render frame(s) → scene
//	GET    /api/v1/sessions/{id}/scene         ?format=json|svg|png|pdf|dot
//	GET    /api/v1/sessions/{id}/elements      ?group=
//	GET    /api/v1/sessions/{id}/elements/{source}
//	GET    /api/v1/sessions/{id}/links         ?group=
//	GET    /api/v1/sessions/{id}/markers       ?group=
//	GET    /api/v1/sessions/{id}/leaked
//	GET    /api/v1/sessions/{id}/events        ?since=
//	POST   /api/v1/sessions/{id}/hide          {"patterns": [...]}
//	POST   /api/v1/sessions/{id}/resize        {"width": w, "height": h}
//	POST   /api/v1/sessions/{id}/relayout
//	POST   /api/v1/sessions/{id}/reset
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/structview/pkg/config"
	"github.com/matzehuels/structview/pkg/observability"
	"github.com/matzehuels/structview/pkg/pipeline"
	"github.com/matzehuels/structview/pkg/session"
)

// Options configures a Server.
type Options struct {
	// Config supplies engine defaults and server limits. Nil selects
	// config.Default().
	Config *config.Config
	// Runner serves the stateless render endpoint. Nil selects an
	// uncached runner.
	Runner *pipeline.Runner
	// Store holds sessions. Nil selects a MemoryStore sized by
	// Config.Server.MaxSessions.
	Store session.Store
	// Gatherer backs /metrics. Nil selects prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg      *config.Config
	runner   *pipeline.Runner
	store    session.Store
	gatherer prometheus.Gatherer
	logger   *log.Logger
	router   chi.Router
}

// New builds a server and its routes.
func New(opts Options) *Server {
	s := &Server{
		cfg:      opts.Config,
		runner:   opts.Runner,
		store:    opts.Store,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
	}
	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = session.NewMemoryStore(s.cfg.Server.MaxSessions)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/layouts", s.handleLayouts)
		r.Post("/render", s.handleRender)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleSessionInfo)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/frames", s.handleFrames)
			r.Get("/scene", s.handleScene)
			r.Get("/elements", s.handleElements)
			r.Get("/elements/{source}", s.handleElement)
			r.Get("/links", s.handleLinks)
			r.Get("/markers", s.handleMarkers)
			r.Get("/leaked", s.handleLeaked)
			r.Get("/events", s.handleEvents)
			r.Post("/hide", s.handleHide)
			r.Post("/resize", s.handleResize)
			r.Post("/relayout", s.handleRelayout)
			r.Post("/reset", s.handleReset)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done,
// then shuts down gracefully. Expired sessions are swept once a minute.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, time.Minute)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("expired sessions", "count", n)
				observability.HTTP().OnSession(ctx, -n)
			}
		}
	}
}
