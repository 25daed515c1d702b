package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/pdfoutline/internal/auth"
	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/pipeline"
	"github.com/dgallion1/pdfoutline/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for pdfoutline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *storage.Store
	sealer       *auth.Sealer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        orch.Store(),
		sealer:       auth.NewSealer(cfg.AuthToken),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/auth/submit", s.handleAuthSubmit)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.sealer, s.cfg.CookieSecure, s.log))

		r.Route("/conversion", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)

			r.Get("/raw", s.handleList(storage.Uploads))
			r.Get("/raw/{fname}", s.handleDownload(storage.Uploads))
			r.Delete("/raw/{fname}", s.handleDeleteUpload)
			r.Post("/raw/{fname}/process", s.handleProcess)
			r.Get("/raw/{fname}/log", s.handleLog)
			r.Delete("/raw/{fname}/log", s.handleClearLog)

			r.Get("/jobs/{jobID}", s.handleJobStatus)

			r.Get("/proc", s.handleList(storage.Processed))
			r.Get("/proc/{fname}", s.handleDownload(storage.Processed))
			r.Delete("/proc/{fname}", s.handleDeleteProcessed)
			r.Get("/proc/{fname}/outline", s.handleOutline)
			r.Get("/proc/{fname}/markdown", s.handleMarkdown)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
