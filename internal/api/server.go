package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/dgallion1/outlined/internal/config"
	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/sse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for outlined. It is the inbound half of
// the service: document uploads, cursor and filter events, and item
// activation all arrive here and are forwarded to the engine. Outbound
// signals travel the other way, through the SSE broker.
type Server struct {
	router chi.Router
	engine *engine.Engine
	broker *sse.Broker
	log    *slog.Logger
	cfg    config.Config

	mu       sync.Mutex
	docTitle string
	docLen   int
}

// NewServer creates and configures the HTTP server.
func NewServer(eng *engine.Engine, broker *sse.Broker, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine: eng,
		broker: broker,
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetDocumentInfo records the title and text length of the currently
// installed document, for the document and stats endpoints.
func (s *Server) SetDocumentInfo(title string, textLen int) {
	s.mu.Lock()
	s.docTitle = title
	s.docLen = textLen
	s.mu.Unlock()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/events", s.broker.ServeHTTP)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/document", s.handleUploadDocument)
		r.Get("/api/document", s.handleGetDocument)
		r.Get("/api/outline", s.handleOutline)
		r.Post("/api/selection", s.handleSetSelection)
		r.Delete("/api/selection", s.handleClearSelection)
		r.Post("/api/filter", s.handleSetFilter)
		r.Delete("/api/filter", s.handleClearFilter)
		r.Post("/api/items/{itemID}/activate", s.handleActivate)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
