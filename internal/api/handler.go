package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/usecase"
	"github.com/DevRickLin/support-desk/internal/service"
)

const maxBodyBytes = 1 << 20

// Server provides the HTTP JSON API the desk UI talks to
type Server struct {
	desk        *service.DeskService
	knowledgeUC *usecase.KnowledgeUsecase
	customerUC  *usecase.CustomerUsecase
	analyticsUC *usecase.AnalyticsUsecase
	logger      *zap.Logger

	addr           string
	allowedOrigins []string
	server         *http.Server
}

// NewServer creates a new API server
func NewServer(
	desk *service.DeskService,
	knowledgeUC *usecase.KnowledgeUsecase,
	customerUC *usecase.CustomerUsecase,
	analyticsUC *usecase.AnalyticsUsecase,
	addr string,
	allowedOrigins []string,
	logger *zap.Logger,
) *Server {
	return &Server{
		desk:           desk,
		knowledgeUC:    knowledgeUC,
		customerUC:     customerUC,
		analyticsUC:    analyticsUC,
		logger:         logger,
		addr:           addr,
		allowedOrigins: allowedOrigins,
	}
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// Desk
		r.Get("/view", s.handleView)
		r.Put("/tab", s.handleSelectTab)
		r.Get("/conversations", s.handleConversations)
		r.Post("/conversations/{id}/select", s.handleSelectConversation)
		r.Put("/compose", s.handleCompose)
		r.Post("/messages", s.handleSend)
		r.Post("/suggestions", s.handleUseSuggestion)

		// Customers
		r.Get("/customers", s.handleCustomers)
		r.Get("/customers/{id}", s.handleCustomer)

		r.Get("/analytics", s.handleAnalytics)

		// Knowledge base
		r.Get("/knowledge", s.handleKnowledgeList)
		r.Get("/knowledge/search", s.handleKnowledgeSearch)
		r.Get("/knowledge/{id}", s.handleKnowledgeGet)
		r.Post("/knowledge", s.handleKnowledgeSave)
		r.Put("/knowledge/{id}", s.handleKnowledgeSave)
		r.Delete("/knowledge/{id}", s.handleKnowledgeDelete)

		// Settings
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting HTTP server", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============ Desk Handlers ============

type textRequest struct {
	Text string `json:"text"`
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r)
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request) {
	view, err := s.desk.View(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.desk.SelectTab(r.Context(), req.Tab); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	list, err := s.desk.Conversations(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": list})
}

func (s *Server) handleSelectConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.desk.SelectConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r)
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.desk.SetCompose(r.Context(), req.Text); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r)
}

// handleSend treats a blank message as a no-op and returns the unchanged view
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.desk.Send(r.Context(), req.Text); err != nil && !domain.IsValidation(err) {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r)
}

func (s *Server) handleUseSuggestion(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.desk.UseSuggestion(r.Context(), req.Text); err != nil && !domain.IsValidation(err) {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r)
}

// ============ Customer Handlers ============

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customers, err := s.customerUC.Filter(r.Context(), q.Get("q"), q.Get("status"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"customers": customers})
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.customerUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.desk.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	overview, err := s.analyticsUC.Overview(r.Context(), conversations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, overview)
}

// ============ Knowledge Handlers ============

func (s *Server) handleKnowledgeList(w http.ResponseWriter, r *http.Request) {
	items, err := s.knowledgeUC.Browse(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	items, err := s.knowledgeUC.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleKnowledgeGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.knowledgeUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleKnowledgeSave(w http.ResponseWriter, r *http.Request) {
	var item domain.KnowledgeItem
	if !s.decode(w, r, &item) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		item.ID = id
	}

	created := item.IsNew()
	saved, err := s.knowledgeUC.Save(r.Context(), item)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, saved)
}

func (s *Server) handleKnowledgeDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.knowledgeUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ============ Settings Handlers ============

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.desk.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if !s.decode(w, r, &settings) {
		return
	}
	if err := s.desk.UpdateSettings(r.Context(), settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

// ============ Helpers ============

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStopped):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
