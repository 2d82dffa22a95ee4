package service

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/tanda/internal/engine"
	"github.com/mmynk/tanda/internal/metrics"
	"github.com/mmynk/tanda/internal/middleware"
	"github.com/mmynk/tanda/internal/models"
)

type createGroupRequest struct {
	Name             string `json:"name"`
	FeeRecipient     string `json:"fee_recipient"`
	Size             int    `json:"size"`
	Contribution     uint64 `json:"contribution"`
	SecurityDeposit  uint64 `json:"security_deposit"`
	TotalCycles      uint64 `json:"total_cycles"`
	FeeBps           uint64 `json:"fee_bps"`
	CycleDurationSec int64  `json:"cycle_duration_sec"`
	PayWindowSec     int64  `json:"pay_window_sec"`
	CommitWindowSec  int64  `json:"commit_window_sec"`
	RevealWindowSec  int64  `json:"reveal_window_sec"`
}

// handleCreateGroup validates the config and instantiates a new group
// engine. The creator does not join automatically.
func (s *Service) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	feeRecipient := req.FeeRecipient
	if feeRecipient == "" {
		feeRecipient = middleware.GetUserID(r.Context())
	}
	cfg := models.GroupConfig{
		FeeRecipient:    feeRecipient,
		Size:            req.Size,
		Contribution:    req.Contribution,
		SecurityDeposit: req.SecurityDeposit,
		TotalCycles:     req.TotalCycles,
		FeeBps:          req.FeeBps,
		CycleDuration:   time.Duration(req.CycleDurationSec) * time.Second,
		PayWindow:       time.Duration(req.PayWindowSec) * time.Second,
		CommitWindow:    time.Duration(req.CommitWindowSec) * time.Second,
		RevealWindow:    time.Duration(req.RevealWindowSec) * time.Second,
	}

	g, err := s.reg.CreateGroup(req.Name, cfg, s.now())
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.GroupsCreated.Inc()
	events := g.DrainEvents()
	metrics.Record(events)
	rec := groupRecord(g)
	if err := s.store.SaveGroup(r.Context(), &rec); err != nil {
		slog.Error("Failed to persist group record", "group_id", g.ID, "error", err)
	}
	if err := s.store.AppendEvents(r.Context(), g.ID, events); err != nil {
		slog.Error("Failed to persist events", "group_id", g.ID, "error", err)
	}

	slog.Info("Group created", "group_id", g.ID, "name", g.Name, "size", cfg.Size)
	writeJSON(w, http.StatusCreated, g.Snapshot())
}

// handleListGroups returns the persisted summary records of all groups,
// including those created before the current process started.
func (s *Service) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.GroupRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"count":  len(groups),
	})
}

// handleGetGroup returns one group's snapshot.
func (s *Service) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	var view engine.GroupView
	err := s.reg.With(r.PathValue("id"), func(g *engine.Group) error {
		view = g.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetCycle returns the snapshot of one round.
func (s *Service) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("n"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle number"})
		return
	}

	var view engine.CycleView
	var ok bool
	err = s.reg.With(r.PathValue("id"), func(g *engine.Group) error {
		view, ok = g.CycleSnapshot(n)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cycle not opened"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetContributions returns per-member payment/commit/reveal flags for
// one round, in roster order.
func (s *Service) handleGetContributions(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("n"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cycle number"})
		return
	}

	var views []engine.ContributionView
	err = s.reg.With(r.PathValue("id"), func(g *engine.Group) error {
		views = g.Contributions(n)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": views})
}

// handleListEvents returns the persisted event stream of a group.
func (s *Service) handleListEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetGroup(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	events, err := s.store.ListEvents(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleApprove grants the group's custody account an allowance to pull the
// given amount from the caller. Members approve before joining or paying.
func (s *Service) handleApprove(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserID(r.Context())
	id := r.PathValue("id")

	var req opRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Only approve for groups this registry actually manages.
	err := s.reg.With(id, func(g *engine.Group) error { return nil })
	if err != nil {
		writeError(w, err)
		return
	}

	s.ledger.Approve(caller, id, req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "allowance": s.ledger.Allowance(caller, id)})
}

type commitRequest struct {
	// Commitment is the hex-encoded 32-byte sealed commitment.
	Commitment string `json:"commitment"`
}

// handleCommit stores the caller's sealed bid commitment.
func (s *Service) handleCommit(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserID(r.Context())
	id := r.PathValue("id")

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	raw, err := hex.DecodeString(req.Commitment)
	if err != nil || len(raw) != 32 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "commitment must be 32 hex-encoded bytes"})
		return
	}
	var commitment [32]byte
	copy(commitment[:], raw)

	err = s.withGroup(r, id, func(g *engine.Group) error {
		return g.CommitBid(caller, commitment, s.now())
	})
	if err != nil {
		slog.Error("Commit failed", "group_id", id, "caller", caller, "error", err)
		writeError(w, err)
		return
	}
	slog.Info("Bid committed", "group_id", id, "caller", caller)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type revealRequest struct {
	Bid uint64 `json:"bid"`
	// Salt is the hex-encoded salt the commitment was built with.
	Salt string `json:"salt"`
}

// handleReveal opens the caller's commitment.
func (s *Service) handleReveal(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserID(r.Context())
	id := r.PathValue("id")

	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	salt, err := hex.DecodeString(req.Salt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "salt must be hex-encoded"})
		return
	}

	err = s.withGroup(r, id, func(g *engine.Group) error {
		return g.RevealBid(caller, req.Bid, salt, s.now())
	})
	if err != nil {
		slog.Error("Reveal failed", "group_id", id, "caller", caller, "error", err)
		writeError(w, err)
		return
	}
	slog.Info("Bid revealed", "group_id", id, "caller", caller, "bid", req.Bid)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// groupRecord builds the persisted summary record from a live engine.
func groupRecord(g *engine.Group) models.GroupRecord {
	snap := g.Snapshot()
	return models.GroupRecord{
		ID:           snap.ID,
		Name:         snap.Name,
		Config:       snap.Config,
		Status:       snap.Status,
		CurrentCycle: snap.CurrentCycle,
		CreatedAt:    snap.CreatedAt.Unix(),
	}
}
