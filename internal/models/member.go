package models

// Member is the per-participant state within one group. A member record is
// created on join and never deleted; flags only ever move forward (a won
// member stays won, a defaulted member stays defaulted).
type Member struct {
	// Address is the member's account identifier on the token ledger.
	Address string

	// Joined is set when the member is admitted during FILLING.
	Joined bool

	// HasWon is set once the member receives a cycle payout. A won member
	// is permanently ineligible to win again but keeps contributing.
	HasWon bool

	// Defaulted is set when the member misses a pay deadline and is
	// penalized. A defaulted member is excluded from all future
	// contributions, bids and distributions.
	Defaulted bool

	// SecurityDeposit is the remaining collateral held in custody for this
	// member. Zeroed on default (forfeited to penalty escrow) or on final
	// refund.
	SecurityDeposit uint64
}

// Eligible reports whether the member may still participate in the current
// cycle (pay and bid). Won members remain eligible to contribute.
func (m *Member) Eligible() bool {
	return m.Joined && !m.Defaulted
}

// EligibleToWin reports whether the member may still be selected as a cycle
// winner.
func (m *Member) EligibleToWin() bool {
	return m.Joined && !m.Defaulted && !m.HasWon
}
