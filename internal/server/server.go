// Package server exposes the diagram engine over HTTP. Each session
// maps to one engine.Session plus an off-screen SVG surface; handlers
// lock the session entry so concurrent requests against one diagram
// serialize, while different diagrams proceed in parallel.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/schematiq/schematiq/pkg/cache"
	"github.com/schematiq/schematiq/pkg/config"
	"github.com/schematiq/schematiq/pkg/engine"
	"github.com/schematiq/schematiq/pkg/render"
	"github.com/schematiq/schematiq/pkg/store"
)

// Options wire the server's collaborators.
type Options struct {
	Config config.Config
	Logger *log.Logger

	// Cache holds computed layouts. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// Store persists diagrams. Nil disables the diagram endpoints.
	Store store.Store
}

// Server is the HTTP front end.
type Server struct {
	cfg    config.Config
	logger *log.Logger
	cache  cache.Cache
	keyer  cache.Keyer
	store  store.Store

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	router chi.Router
}

// sessionEntry pairs a session with its surface and a lock that
// serializes requests against it.
type sessionEntry struct {
	mu       sync.Mutex
	session  *engine.Session
	surface  *render.Surface
	spacing  int
	lastUsed time.Time
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	s := &Server{
		cfg:      opts.Config,
		logger:   logger,
		cache:    opts.Cache,
		keyer:    keyer,
		store:    opts.Store,
		sessions: make(map[string]*sessionEntry),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server on the configured address until the
// context is canceled, then drains in-flight requests and returns.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Server.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/render", s.handleRender)
				r.Post("/layout/{operation}", s.handleLayout)
				r.Post("/spacing", s.handleSpacing)
				r.Post("/drag/step", s.handleDragStep)
				r.Post("/drag/end", s.handleDragEnd)
				r.Get("/positions", s.handlePositions)
				r.Delete("/positions", s.handleClearPositions)
				r.Get("/nodes", s.handleNodes)
				r.Get("/svg", s.handleSVG)
				r.Post("/camera/zoom", s.handleZoom)
				r.Post("/camera/pan", s.handlePan)
				r.Post("/camera/fit", s.handleFit)
				r.Post("/camera/reset", s.handleResetView)
			})
		})
		r.Route("/diagrams", func(r chi.Router) {
			r.Get("/", s.handleListDiagrams)
			r.Post("/", s.handleSaveDiagram)
			r.Get("/{diagramID}", s.handleLoadDiagram)
			r.Delete("/{diagramID}", s.handleDeleteDiagram)
		})
	})
	return r
}

// logRequests is a thin structured-log middleware over chi's wrapper.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// entry looks up a session entry by ID.
func (s *Server) entry(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if ok {
		e.lastUsed = time.Now()
	}
	return e, ok
}

// EvictIdle drops sessions idle longer than the configured TTL.
// Intended to run periodically from the serve command.
func (s *Server) EvictIdle() int {
	ttl := s.cfg.Server.SessionTTL.Duration
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("evicted idle sessions", "count", n)
	}
	return n
}
