// Package service exposes the group engine over HTTP: auth, group
// lifecycle operations, read-only views and the persisted event stream.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/tanda/internal/auth"
	"github.com/mmynk/tanda/internal/engine"
	"github.com/mmynk/tanda/internal/metrics"
	"github.com/mmynk/tanda/internal/middleware"
	"github.com/mmynk/tanda/internal/registry"
	"github.com/mmynk/tanda/internal/storage"
	"github.com/mmynk/tanda/internal/token"
)

// Service wires the registry, token ledger, auth and storage behind the
// HTTP API.
type Service struct {
	store  storage.Store
	reg    *registry.Registry
	ledger *token.Ledger
	authn  *auth.PasswordAuthenticator
	jwt    *auth.JWTManager

	// startingBalance is minted to each new account so a fresh deployment
	// is usable without an external token bridge. Zero disables minting.
	startingBalance uint64

	// now is the service clock; tests override it to drive deadlines.
	now func() time.Time
}

// New creates a service. startingBalance is the amount minted to every
// newly registered account.
func New(store storage.Store, reg *registry.Registry, ledger *token.Ledger, jwtManager *auth.JWTManager, startingBalance uint64) *Service {
	return &Service{
		store:           store,
		reg:             reg,
		ledger:          ledger,
		authn:           auth.NewPasswordAuthenticator(store),
		jwt:             jwtManager,
		startingBalance: startingBalance,
		now:             time.Now,
	}
}

// Register installs all routes on the mux. Group operations require a valid
// JWT; registration and login do not.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(s.jwt, h)
	}
	mux.Handle("GET /api/balance", authed(s.handleBalance))
	mux.Handle("POST /api/groups", authed(s.handleCreateGroup))
	mux.Handle("GET /api/groups", authed(s.handleListGroups))
	mux.Handle("GET /api/groups/{id}", authed(s.handleGetGroup))
	mux.Handle("GET /api/groups/{id}/cycles/{n}", authed(s.handleGetCycle))
	mux.Handle("GET /api/groups/{id}/cycles/{n}/contributions", authed(s.handleGetContributions))
	mux.Handle("GET /api/groups/{id}/events", authed(s.handleListEvents))
	mux.Handle("POST /api/groups/{id}/approve", authed(s.handleApprove))

	ops := map[string]func(g *engine.Group, caller string, body opRequest, now time.Time) error{
		"join":               func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.Join(c, now) },
		"pay":                func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.PayContribution(c, now) },
		"process-defaults":   func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.ProcessDefaults(c, now) },
		"advance-reveal":     func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.AdvanceToReveal(c, now) },
		"advance-settlement": func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.AdvanceToSettlement(c, now) },
		"settle":             func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.SettleCycle(c, now) },
		"distribute-escrow":  func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.DistributePenaltyEscrow(c, now) },
		"withdraw-security":  func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.WithdrawSecurity(c, now) },
		"withdraw-fee":       func(g *engine.Group, c string, _ opRequest, now time.Time) error { return g.WithdrawDevFee(c, now) },
	}
	for name, op := range ops {
		mux.Handle("POST /api/groups/{id}/"+name, authed(s.opHandler(name, op)))
	}
	mux.Handle("POST /api/groups/{id}/commit", authed(s.handleCommit))
	mux.Handle("POST /api/groups/{id}/reveal", authed(s.handleReveal))
}

// opRequest is the (optional) JSON body of a group operation.
type opRequest struct {
	Amount uint64 `json:"amount"`
}

// opHandler adapts a bodyless engine operation to HTTP.
func (s *Service) opHandler(name string, op func(g *engine.Group, caller string, body opRequest, now time.Time) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.GetUserID(r.Context())
		id := r.PathValue("id")

		var body opRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		err := s.withGroup(r, id, func(g *engine.Group) error {
			return op(g, caller, body, s.now())
		})
		if err != nil {
			slog.Error("Group operation failed", "op", name, "group_id", id, "caller", caller, "error", err)
			writeError(w, err)
			return
		}
		slog.Info("Group operation applied", "op", name, "group_id", id, "caller", caller)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// withGroup runs fn under the group's lock, then drains the engine's new
// events into the store and the metrics collectors and refreshes the
// persisted group record. Event persistence failures are logged, not
// surfaced: the in-memory engine already committed.
func (s *Service) withGroup(r *http.Request, id string, fn func(g *engine.Group) error) error {
	return s.reg.With(id, func(g *engine.Group) error {
		opErr := fn(g)

		events := g.DrainEvents()
		if len(events) > 0 {
			metrics.Record(events)
			if err := s.store.AppendEvents(r.Context(), g.ID, events); err != nil {
				slog.Error("Failed to persist events", "group_id", g.ID, "error", err)
			}
			rec := groupRecord(g)
			if err := s.store.SaveGroup(r.Context(), &rec); err != nil {
				slog.Error("Failed to persist group record", "group_id", g.ID, "error", err)
			}
		}
		return opErr
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine and registry errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, registry.ErrGroupNotFound),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotMember),
		errors.Is(err, engine.ErrNotFeeRecipient),
		errors.Is(err, engine.ErrMemberDefaulted):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrWindowClosed),
		errors.Is(err, engine.ErrDeadlineNotPassed),
		errors.Is(err, engine.ErrNotReadyToSettle),
		errors.Is(err, engine.ErrAlreadyJoined),
		errors.Is(err, engine.ErrAlreadyPaid),
		errors.Is(err, engine.ErrAlreadyCommitted),
		errors.Is(err, engine.ErrAlreadyRevealed),
		errors.Is(err, engine.ErrGroupFull),
		errors.Is(err, engine.ErrGroupNotFilling),
		errors.Is(err, engine.ErrGroupNotActive),
		errors.Is(err, engine.ErrGroupNotCompleted):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
