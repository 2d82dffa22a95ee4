package models

import (
	"fmt"
	"time"
)

// GroupStatus is the group-level lifecycle state. Transitions are linear:
// FILLING -> ACTIVE -> COMPLETED, with no reverse transitions.
type GroupStatus string

const (
	// StatusFilling means the group is still admitting members.
	StatusFilling GroupStatus = "FILLING"

	// StatusActive means the roster is full and cycles are running.
	StatusActive GroupStatus = "ACTIVE"

	// StatusCompleted means the last cycle has settled, or no eligible
	// winner remained. Terminal.
	StatusCompleted GroupStatus = "COMPLETED"
)

// GroupConfig holds the immutable parameters of a savings group, fixed at
// creation. No parameter can be changed afterwards.
type GroupConfig struct {
	// FeeRecipient is the account that accrued platform fees are paid to.
	FeeRecipient string `json:"fee_recipient"`

	// Size is the number of participants N the group fills up to.
	Size int `json:"size"`

	// Contribution is the per-cycle contribution amount C, in the token's
	// smallest unit.
	Contribution uint64 `json:"contribution"`

	// SecurityDeposit is the collateral S locked at join time, forfeited on
	// default and refunded at completion.
	SecurityDeposit uint64 `json:"security_deposit"`

	// TotalCycles is the number of rounds T the group runs. Must not exceed
	// Size, since each cycle produces at most one new winner.
	TotalCycles uint64 `json:"total_cycles"`

	// FeeBps is the platform fee rate in basis points, applied to each
	// cycle's pool before payout.
	FeeBps uint64 `json:"fee_bps"`

	// CycleDuration is the wall-clock length of one full cycle.
	CycleDuration time.Duration `json:"cycle_duration"`

	// PayWindow, CommitWindow and RevealWindow are the three sub-windows of
	// a cycle, in order. Their sum must not exceed CycleDuration.
	PayWindow    time.Duration `json:"pay_window"`
	CommitWindow time.Duration `json:"commit_window"`
	RevealWindow time.Duration `json:"reveal_window"`
}

// Validate checks the creation-time invariants of a config.
func (c *GroupConfig) Validate() error {
	if c.FeeRecipient == "" {
		return fmt.Errorf("fee recipient required")
	}
	if c.Size < 2 {
		return fmt.Errorf("group size must be at least 2, got %d", c.Size)
	}
	if c.Contribution == 0 {
		return fmt.Errorf("contribution amount must be positive")
	}
	if c.TotalCycles == 0 {
		return fmt.Errorf("total cycles must be positive")
	}
	if c.TotalCycles > uint64(c.Size) {
		return fmt.Errorf("total cycles %d exceeds group size %d", c.TotalCycles, c.Size)
	}
	if c.FeeBps > 10000 {
		return fmt.Errorf("fee rate %d exceeds 10000 basis points", c.FeeBps)
	}
	if c.PayWindow <= 0 || c.CommitWindow <= 0 || c.RevealWindow <= 0 {
		return fmt.Errorf("all phase windows must be positive")
	}
	if c.PayWindow+c.CommitWindow+c.RevealWindow > c.CycleDuration {
		return fmt.Errorf("phase windows exceed cycle duration")
	}
	return nil
}

// GroupRecord is the persisted summary of a group, used for listing groups
// across restarts. The live engine state is authoritative; this record only
// mirrors the fields an index needs.
type GroupRecord struct {
	// ID is the group's unique identifier (UUID format). It doubles as the
	// group's custody account on the token ledger.
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Office Tanda").
	Name string `json:"name"`

	Config GroupConfig `json:"config"`

	Status GroupStatus `json:"status"`

	// CurrentCycle is the active round number, 1-based. Zero while FILLING.
	CurrentCycle uint64 `json:"current_cycle"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}
