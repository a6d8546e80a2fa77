package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
	"deals-chat-backend/internal/chat"
	"deals-chat-backend/internal/config"
	"deals-chat-backend/internal/db"
	"deals-chat-backend/internal/store"
	"deals-chat-backend/internal/types"
)

// AuditReader lists recorded analytics dispatches.
type AuditReader interface {
	RecentDispatches(ctx context.Context, limit int) ([]store.DispatchRow, error)
}

// HealthChecker reports whether the audit database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators of a Server. Audit and Health are optional.
type Deps struct {
	Controller *chat.Controller
	Sessions   *store.MemoryStore
	Audit      AuditReader
	Health     HealthChecker
}

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	controller *chat.Controller
	sessions   *store.MemoryStore
	audit      AuditReader
	health     HealthChecker
	database   *db.DB
}

// NewServer wires the backend client, the analytics dispatcher and the
// optional audit database and assistant from cfg.
func NewServer(cfg config.Config) (*Server, error) {
	client, err := backend.NewClient(backend.Options{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.BackendTimeout,
		Token:        cfg.BackendToken,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
		TokenURL:     cfg.BackendTokenURL,
		Scopes:       cfg.BackendScopes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	if cfg.BackendURL == "" {
		log.Printf("warning: BACKEND_URL not provided, using %s", backend.DefaultBaseURL)
	}

	opts := []chat.Option{chat.WithBackendPort(client.Port())}
	if cfg.OpenAIAPIKey != "" {
		prompt, err := chat.LoadAssistantPrompt(cfg.AssistantPrompt)
		if err != nil {
			log.Printf("warning: failed to load assistant prompt, using static help: %v", err)
		} else {
			opts = append(opts, chat.WithAssistant(chat.NewLLMAssistant(prompt, openai.NewClient(cfg.OpenAIAPIKey), cfg.Model)))
		}
	}

	deps := Deps{Sessions: store.NewMemoryStore(cfg.SessionTTL)}
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Println("database connection established")

		if cfg.RunMigrations {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := database.RunMigrations(ctx, cfg.MigrationsDir)
			cancel()
			if err != nil {
				database.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Println("database migrations completed")
		}

		audit := store.NewAuditStore(database)
		opts = append(opts, chat.WithAudit(audit))
		deps.Audit = audit
		deps.Health = database
	} else {
		log.Println("warning: DB_URL not provided, analytics dispatches are not audited")
	}

	deps.Controller = chat.NewController(analytics.NewDispatcher(client.Fetchers()), client, opts...)
	s := NewServerWithDeps(cfg, deps)
	s.database = database
	return s, nil
}

// NewServerWithDeps builds a Server around ready-made collaborators.
func NewServerWithDeps(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	sessions := deps.Sessions
	if sessions == nil {
		sessions = store.NewMemoryStore(cfg.SessionTTL)
	}
	s := &Server{
		router:     r,
		cfg:        cfg,
		controller: deps.Controller,
		sessions:   sessions,
		audit:      deps.Audit,
		health:     deps.Health,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/chat/queries", s.handleQueries)
	s.router.Get("/api/chat/messages", s.handleMessages)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/chat/open", s.handleOpen)
	s.router.Post("/api/chat/close", s.handleClose)
	s.router.Post("/api/chat/toggle", s.handleToggle)
	s.router.Post("/api/chat/reset", s.handleReset)
	// Product page context
	s.router.Put("/api/chat/context", s.handleSetContext)
	s.router.Delete("/api/chat/context", s.handleClearContext)
	s.router.Get("/api/chat/audit", s.handleAudit)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the audit database, if any.
func (s *Server) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

// SweepSessions drops idle sessions every interval until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.sessions.Sweep(); n > 0 {
				log.Printf("[session] expired %d idle session(s)", n)
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := types.HealthResponse{Status: "ok", Sessions: s.sessions.Len()}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		resp.Database = "ok"
		if err := s.health.HealthCheck(ctx); err != nil {
			log.Printf("[health] database check failed: %v", err)
			resp.Database = "unavailable"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	qs := analytics.Queries()
	resp := types.QueriesResponse{Queries: make([]types.QueryInfo, 0, len(qs))}
	for _, q := range qs {
		resp.Queries = append(resp.Queries, types.QueryInfo{ID: int(q.ID), Label: q.Label, Title: q.Title})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, s.session(w, r))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	added, err := s.controller.Send(r.Context(), sess, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, chat.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		log.Printf("[chat] session %s send failed: %v", sess.ID(), err)
		s.writeError(w, http.StatusInternalServerError, "failed to handle message")
		return
	}
	writeJSON(w, http.StatusOK, types.ChatResponse{SessionID: sess.ID(), Messages: added})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Open()
	s.writeState(w, sess)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Close()
	s.writeState(w, sess)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Toggle()
	s.writeState(w, sess)
}

// handleReset drops the session and answers with a fresh greeting under the
// same id.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sid := getOrCreateSessionID(r, w)
	s.sessions.Delete(sid)
	sess, _ := s.sessions.GetOrCreate(sid)
	log.Printf("[session] reset session %s", sid)
	w.Header().Set("X-Session-Id", sid)
	s.writeState(w, sess)
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	var req types.ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		s.writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if _, err := s.controller.FocusProduct(r.Context(), sess, strings.TrimSpace(req.ProductID)); err != nil {
		log.Printf("[chat] session %s product %q lookup failed: %v", sess.ID(), req.ProductID, err)
		if errors.Is(err, backend.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeState(w, sess)
}

func (s *Server) handleClearContext(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ClearProduct()
	s.writeState(w, sess)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, http.StatusNotFound, "dispatch audit is not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	rows, err := s.audit.RecentDispatches(r.Context(), limit)
	if err != nil {
		log.Printf("[audit] list dispatches failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list dispatches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dispatches": rows})
}

func (s *Server) writeState(w http.ResponseWriter, sess *chat.Session) {
	resp := types.MessagesResponse{
		SessionID: sess.ID(),
		Open:      sess.IsOpen(),
		Messages:  sess.Messages(),
	}
	if p := sess.Product(); p != nil {
		resp.Product = &types.ProductContext{ProductID: p.ID, Name: p.Name}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// session resolves the caller's widget session, creating it when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *chat.Session {
	sid := getOrCreateSessionID(r, w)
	sess, created := s.sessions.GetOrCreate(sid)
	if created {
		log.Printf("[session] started session %s for endpoint: %s", sid, r.URL.Path)
	}
	w.Header().Set("X-Session-Id", sid)
	return sess
}

func newSessionID() string {
	return uuid.NewString()
}

// getSessionID retrieves the session ID from cookie, header or query parameter
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets the existing session ID or creates a new one,
// setting the cookie either way so it slides with activity.
func getOrCreateSessionID(r *http.Request, w http.ResponseWriter) string {
	sid := strings.TrimSpace(getSessionID(r))
	if sid == "" {
		sid = newSessionID()
	}
	SetSessionCookie(w, r, sid)
	return sid
}
