// Package inspect serves a running store over HTTP for debugging: JSON
// reads of state and selectors, JSON patches, and a WebSocket stream of
// change notifications.
//
// Routes:
//
//	GET   /healthz         ok
//	GET   /state           state snapshot
//	GET   /state/{path}    value at a dotted key-path, 404 if missing
//	PATCH /state           merge a JSON object into state, 204
//	GET   /selectors       current selector values
//	GET   /subscriptions   {"count": n}
//	GET   /ws              change stream of {"seq","key","path"}
//	GET   /metrics         Prometheus metrics, when WithMetrics is set
package inspect

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/storekit/pkg/state"
	"github.com/vango-dev/storekit/pkg/store"
)

// maxPatchBytes bounds PATCH /state bodies.
const maxPatchBytes = 1 << 20

// Server exposes a Store over HTTP.
type Server struct {
	store   *store.Store
	hub     *Hub
	router  chi.Router
	logger  *slog.Logger
	metrics http.Handler
	unsub   func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a Server for st and starts streaming its changes to
// WebSocket clients. Call Close to stop.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(s.logger)
	s.unsub = st.Subscribe(s.hub.Publish)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.handleGetState)
		r.Patch("/", s.handlePatchState)
		r.Get("/{path}", s.handleGetPath)
	})

	r.Get("/selectors", s.handleGetSelectors)
	r.Get("/subscriptions", s.handleGetSubscriptions)
	r.Get("/ws", s.hub.HandleWebSocket)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close stops streaming changes and disconnects WebSocket clients.
func (s *Server) Close() {
	s.unsub()
	s.hub.Close()
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	if _, err := state.SplitPath(path); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Values are read from a snapshot so encoding never races a writer.
	snap := state.New(s.store.Snapshot())
	v, ok := snap.Lookup(path)
	if !ok {
		http.Error(w, "key not found: "+path, http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePatchState(w http.ResponseWriter, r *http.Request) {
	partial, err := decodePatch(http.MaxBytesReader(w, r.Body, maxPatchBytes))
	if err != nil {
		http.Error(w, "invalid patch: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.store.PatchStateContext(r.Context(), partial)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSelectors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetSelectors())
}

func (s *Server) handleGetSubscriptions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"count": s.store.Subscriptions()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("inspect: encode response", "error", err)
		http.Error(w, "encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("inspect: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
