package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/tanda/internal/middleware"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// handleRegister creates an account and returns a session token. New
// accounts receive the configured starting balance on the token ledger.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := s.authn.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		slog.Error("Registration failed", "email", req.Email, "error", err)
		writeError(w, err)
		return
	}

	if s.startingBalance > 0 {
		s.ledger.Mint(user.ID, s.startingBalance)
	}

	tok, err := s.jwt.Generate(user)
	if err != nil {
		slog.Error("Token generation failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		return
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusCreated, authResponse{Token: tok, UserID: user.ID, Name: user.Name})
}

// handleLogin authenticates a user and returns a session token.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := s.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	tok, err := s.jwt.Generate(user)
	if err != nil {
		slog.Error("Token generation failed", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue token"})
		return
	}

	slog.Info("User logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: tok, UserID: user.ID, Name: user.Name})
}

// handleBalance returns the caller's balance on the token ledger.
func (s *Service) handleBalance(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserID(r.Context())
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": s.ledger.BalanceOf(caller)})
}
