package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"forgetodo/internal/forge"
	"forgetodo/internal/store"
)

// loginRequest carries a forge credential to exchange for a session token.
type loginRequest struct {
	Kind   forge.CredentialKind `json:"kind"`
	Secret string               `json:"secret"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

// handleLogin verifies the supplied credential against the configured forge,
// upserts the user row and returns a signed session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cred := forge.Credential{Kind: req.Kind, Secret: req.Secret}
	if !cred.Valid() {
		respondError(w, http.StatusBadRequest, "credential kind and secret are required")
		return
	}

	profile, err := s.forge.CurrentUser(r.Context(), s.forgeBaseURL, cred)
	if err != nil {
		s.respondLoginError(w, err)
		return
	}
	s.finishLogin(w, r, profile)
}

// finishLogin is shared by credential login and the OAuth callback.
func (s *Server) finishLogin(w http.ResponseWriter, r *http.Request, profile *forge.Profile) {
	user, err := s.store.GetOrCreateUser(r.Context(), profile)
	if err != nil {
		log.Printf("login: upsert user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	token, _, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		log.Printf("login: issue token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondData(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) respondLoginError(w http.ResponseWriter, err error) {
	var authErr *forge.AuthError
	var connErr *forge.ConnectError
	switch {
	case errors.As(err, &authErr):
		msg := authErr.Message
		if msg == "" {
			msg = "forge rejected the credential"
		}
		respondError(w, http.StatusUnauthorized, msg)
	case errors.As(err, &connErr):
		respondError(w, http.StatusBadGateway, connErr.Error())
	default:
		log.Printf("login: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	filters := store.ListFilters{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
	}
	todos, err := s.store.ListTodos(r.Context(), userIDFromCtx(r), filters)
	if err != nil {
		log.Printf("list todos: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondData(w, http.StatusOK, todos)
}

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	Completed   bool    `json:"completed"`
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Priority != "" && !store.ValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "priority must be low, medium or high")
		return
	}

	in := store.NewTodo{
		Title:     title,
		Priority:  req.Priority,
		Completed: req.Completed,
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			in.Description = &d
		}
	}

	todo, err := s.store.CreateTodo(r.Context(), userIDFromCtx(r), in)
	if err != nil {
		log.Printf("create todo: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondData(w, http.StatusCreated, todo)
}

type updateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	todoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "todo not found")
		return
	}

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.TodoPatch{
		Priority:  req.Priority,
		Completed: req.Completed,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}
		patch.Title = &title
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		patch.Description = &d
	}
	if req.Priority != nil && !store.ValidPriority(*req.Priority) {
		respondError(w, http.StatusBadRequest, "priority must be low, medium or high")
		return
	}

	todo, err := s.store.UpdateTodo(r.Context(), userIDFromCtx(r), todoID, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "todo not found")
	case errors.Is(err, store.ErrNoFields):
		respondError(w, http.StatusBadRequest, "no fields to update")
	case err != nil:
		log.Printf("update todo %d: %v", todoID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondData(w, http.StatusOK, todo)
	}
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	todoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "todo not found")
		return
	}

	todo, err := s.store.DeleteTodo(r.Context(), userIDFromCtx(r), todoID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "todo not found")
	case err != nil:
		log.Printf("delete todo %d: %v", todoID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondData(w, http.StatusOK, todo)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), userIDFromCtx(r))
	if err != nil {
		log.Printf("todo stats: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondData(w, http.StatusOK, stats)
}
