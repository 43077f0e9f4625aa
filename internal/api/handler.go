// Package api exposes a small admin HTTP surface for operators:
// health, stored identities and pending payment contexts.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/biz/usecase"
)

// Server is the admin HTTP server
type Server struct {
	identity   repo.IdentityRepo
	payment    *usecase.PaymentUsecase
	onboarding *usecase.OnboardingUsecase

	server *http.Server
	port   int
}

// NewServer creates a new admin server
func NewServer(identity repo.IdentityRepo, payment *usecase.PaymentUsecase, onboarding *usecase.OnboardingUsecase, port int) *Server {
	return &Server{
		identity:   identity,
		payment:    payment,
		onboarding: onboarding,
		port:       port,
	}
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/identities", s.handleListIdentities)
	r.Get("/api/identities/{userID}", s.handleGetIdentity)
	r.Get("/api/pending/{userID}", s.handleGetPending)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		fmt.Printf("[API] Admin server listening on :%d\n", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("[API] Server error: %v\n", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() {
	if s.server != nil {
		_ = s.server.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	records, err := s.identity.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type identityView struct {
		UserID    string `json:"userId"`
		Alias     string `json:"alias"`
		Address   string `json:"address"`
		Attested  bool   `json:"attested"`
		UpdatedAt string `json:"updatedAt"`
		Stage     string `json:"stage"`
	}
	views := make([]identityView, 0, len(records))
	for _, rec := range records {
		views = append(views, identityView{
			UserID:    rec.UserID,
			Alias:     rec.Alias,
			Address:   rec.Address,
			Attested:  rec.Attested,
			UpdatedAt: rec.UpdatedAt.UTC().Format(time.RFC3339),
			Stage:     string(s.onboarding.Stage(rec.UserID)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"identities": views})
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	record, err := s.identity.GetByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no identity for user"})
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	pending := s.payment.Pending(userID)
	if pending == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pending payment"})
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
