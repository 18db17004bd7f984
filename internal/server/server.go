// Package server exposes the REST API: a login endpoint that exchanges a
// forge credential for a session token, and the authenticated todo routes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"forgetodo/internal/config"
	"forgetodo/internal/forge"
	"forgetodo/internal/store"
)

type Server struct {
	store        *store.Store
	forge        *forge.Client
	tokens       *TokenManager
	forgeBaseURL string
	oauth        *oauthFlow // nil unless an OAuth app is configured
}

func New(cfg *config.Config, st *store.Store, fc *forge.Client) *Server {
	s := &Server{
		store:        st,
		forge:        fc,
		tokens:       NewTokenManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLDays)*24*time.Hour),
		forgeBaseURL: cfg.ForgeBaseURL,
	}
	if cfg.OAuthClientID != "" && cfg.OAuthClientSecret != "" {
		s.oauth = newOAuthFlow(cfg)
	}
	return s
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Post("/auth/login", s.handleLogin)
	if s.oauth != nil {
		r.Get("/auth/oauth/start", s.handleOAuthStart)
		r.Get("/auth/oauth/callback", s.handleOAuthCallback)
	}

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(s.tokens))
		r.Get("/todos", s.handleListTodos)
		r.Post("/todos", s.handleCreateTodo)
		r.Get("/todos/stats", s.handleStats)
		r.Put("/todos/{id}", s.handleUpdateTodo)
		r.Delete("/todos/{id}", s.handleDeleteTodo)
	})

	return r
}
