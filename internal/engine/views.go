package engine

import (
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// GroupView is the read-only snapshot of a group's top-level state.
type GroupView struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Status        models.GroupStatus `json:"status"`
	CurrentCycle  uint64             `json:"current_cycle"`
	Members       []MemberView       `json:"members"`
	PenaltyEscrow uint64             `json:"penalty_escrow"`
	DevFeeBalance uint64             `json:"dev_fee_balance"`
	Config        models.GroupConfig `json:"config"`
	CreatedAt     time.Time          `json:"created_at"`
}

// MemberView is one roster entry in a group snapshot.
type MemberView struct {
	Address         string `json:"address"`
	HasWon          bool   `json:"has_won"`
	Defaulted       bool   `json:"defaulted"`
	SecurityDeposit uint64 `json:"security_deposit"`
}

// CycleView is the read-only snapshot of one cycle.
type CycleView struct {
	Number             uint64            `json:"number"`
	Phase              models.CyclePhase `json:"phase"`
	StartTime          time.Time         `json:"start_time"`
	PayDeadline        time.Time         `json:"pay_deadline"`
	CommitDeadline     time.Time         `json:"commit_deadline"`
	RevealDeadline     time.Time         `json:"reveal_deadline"`
	TotalContributions uint64            `json:"total_contributions"`
	ContributorCount   int               `json:"contributor_count"`
	Winner             string            `json:"winner,omitempty"`
	WinningBid         uint64            `json:"winning_bid"`
}

// ContributionView is one member's payment/commit/reveal flags for a cycle.
type ContributionView struct {
	Address   string `json:"address"`
	Paid      bool   `json:"paid"`
	Committed bool   `json:"committed"`
	Revealed  bool   `json:"revealed"`
	// RevealedBid is only meaningful once Revealed is true.
	RevealedBid uint64 `json:"revealed_bid"`
}

// Status returns the group lifecycle state.
func (g *Group) Status() models.GroupStatus { return g.status }

// CurrentCycle returns the active round number (zero while FILLING).
func (g *Group) CurrentCycle() uint64 { return g.currentCycle }

// PenaltyEscrow returns the pooled forfeited deposits not yet distributed.
func (g *Group) PenaltyEscrow() uint64 { return g.penaltyEscrow }

// DevFeeBalance returns the accrued, unwithdrawn platform fees.
func (g *Group) DevFeeBalance() uint64 { return g.devFeeBalance }

// Config returns the group's immutable configuration.
func (g *Group) Config() models.GroupConfig { return g.cfg }

// Snapshot returns the full group view, roster in join order.
func (g *Group) Snapshot() GroupView {
	members := make([]MemberView, len(g.members))
	for i, m := range g.members {
		members[i] = MemberView{
			Address:         m.Address,
			HasWon:          m.HasWon,
			Defaulted:       m.Defaulted,
			SecurityDeposit: m.SecurityDeposit,
		}
	}
	return GroupView{
		ID:            g.ID,
		Name:          g.Name,
		Status:        g.status,
		CurrentCycle:  g.currentCycle,
		Members:       members,
		PenaltyEscrow: g.penaltyEscrow,
		DevFeeBalance: g.devFeeBalance,
		Config:        g.cfg,
		CreatedAt:     g.createdAt,
	}
}

// CycleSnapshot returns the view of round n, or false if it has not opened.
func (g *Group) CycleSnapshot(n uint64) (CycleView, bool) {
	cyc, ok := g.cycles[n]
	if !ok {
		return CycleView{}, false
	}
	return CycleView{
		Number:             cyc.Number,
		Phase:              cyc.Phase,
		StartTime:          cyc.StartTime,
		PayDeadline:        cyc.PayDeadline,
		CommitDeadline:     cyc.CommitDeadline,
		RevealDeadline:     cyc.RevealDeadline,
		TotalContributions: cyc.TotalContributions,
		ContributorCount:   cyc.ContributorCount,
		Winner:             cyc.Winner,
		WinningBid:         cyc.WinningBid,
	}, true
}

// Contributions returns the per-member flags for round n, roster order.
// Members with no record for the round get all-false flags.
func (g *Group) Contributions(n uint64) []ContributionView {
	out := make([]ContributionView, len(g.members))
	for i, m := range g.members {
		v := ContributionView{Address: m.Address}
		if c := g.contributionIfAny(n, m.Address); c != nil {
			v.Paid = c.Paid
			v.Committed = c.HasCommitment()
			v.Revealed = c.Revealed
			v.RevealedBid = c.RevealedBid
		}
		out[i] = v
	}
	return out
}
