// Package api provides the HTTP surface of Spail: auth, mailbox operations,
// profiles, and the web-search proxy.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spailhq/spail/internal/config"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/scheduler"
	"github.com/spailhq/spail/internal/search"
	"github.com/spailhq/spail/internal/session"
)

// Searcher is the search proxy contract the API needs.
type Searcher interface {
	Query(ctx context.Context, q, typ string) *search.Response
}

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	svc      *mailbox.Service
	sessions *session.Provider
	searcher Searcher
	sweeper  *scheduler.Sweeper // Optional; nil disables retention endpoints
	logger   *slog.Logger
	router   chi.Router
	server   *http.Server
}

// NewServer creates the API server. sweeper may be nil.
func NewServer(cfg *config.Config, svc *mailbox.Service, sessions *session.Provider, searcher Searcher, sweeper *scheduler.Sweeper, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		sessions: sessions,
		searcher: searcher,
		sweeper:  sweeper,
		logger:   logger,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	if len(s.cfg.Server.CORSOrigins) > 0 {
		corsConfig := CORSConfig{
			AllowedOrigins:   s.cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			AllowCredentials: s.cfg.Server.CORSCredentials,
			MaxAge:           s.cfg.Server.CORSMaxAge,
		}
		if corsConfig.MaxAge == 0 {
			corsConfig.MaxAge = 86400
		}
		r.Use(CORSMiddleware(corsConfig))
	}

	r.Use(RateLimitMiddleware(NewRateLimiter(10, 20)))

	r.Get("/health", s.handleHealth)

	// The search proxy sits outside /api/v1 to match the original route
	// shape, and needs no session.
	r.Get("/api/search", s.handleSearch)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.apiKeyMiddleware)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/session", s.handleSession)

		r.Get("/mail", s.handleListMail)
		r.Post("/mail", s.handleSendMail)
		r.Get("/mail/{id}", s.handleGetMail)
		r.Post("/mail/{id}/star", s.handleStarMail)
		r.Post("/mail/{id}/trash", s.handleTrashMail)
		r.Post("/mail/{id}/restore", s.handleRestoreMail)
		r.Delete("/mail/{id}", s.handlePurgeMail)

		r.Post("/drafts", s.handleSaveDraft)
		r.Delete("/drafts/{id}", s.handleDeleteDraft)

		r.Get("/users/{username}", s.handleGetUser)
		r.Put("/users/{username}", s.handleUpdateUser)
		r.Delete("/users/{username}", s.handleDeleteUser)

		r.Get("/stats", s.handleStats)

		if s.sweeper != nil {
			r.Get("/retention", s.handleRetentionStatus)
			r.Post("/retention/sweep", s.handleRetentionSweep)
		}
	})

	return r
}

// loggerMiddleware logs each request with method, path, status and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// apiKeyMiddleware enforces the configured API key, if any. The key rides in
// the X-API-Key header and is compared in constant time.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.cfg.Server.APIKey
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		provided := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured port. Blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	addr := net.JoinHostPort("", strconv.Itoa(s.cfg.Server.APIPort))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("api server listening", "addr", addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
