package models

import "time"

// CyclePhase is the per-cycle state machine position. Phases advance strictly
// forward and are never revisited within a cycle.
type CyclePhase string

const (
	PhaseNotStarted    CyclePhase = "NOT_STARTED"
	PhaseCollecting    CyclePhase = "COLLECTING"
	PhaseCommitting    CyclePhase = "COMMITTING"
	PhaseRevealing     CyclePhase = "REVEALING"
	PhaseReadyToSettle CyclePhase = "READY_TO_SETTLE"
	PhaseSettled       CyclePhase = "SETTLED"
)

// Cycle is one round of collection + auction + payout. A cycle is created
// directly into COLLECTING when it opens and becomes immutable once SETTLED.
type Cycle struct {
	// Number is the 1-based round number.
	Number uint64

	Phase CyclePhase

	// StartTime is when the cycle opened. The three deadlines below are
	// absolute times derived from it plus the cumulative window durations.
	StartTime      time.Time
	PayDeadline    time.Time
	CommitDeadline time.Time
	RevealDeadline time.Time

	// TotalContributions is the running pool of contributions collected
	// this cycle.
	TotalContributions uint64

	// ContributorCount is the number of members who have paid this cycle.
	ContributorCount int

	// Winner and WinningBid are recorded at settlement. Winner is empty if
	// the cycle settled with no eligible candidate.
	Winner     string
	WinningBid uint64
}

// Contribution is one member's record for one cycle, created lazily on their
// first pay or commit. A commitment, once set, is immutable; a reveal must
// match it under the binding hash or it is rejected.
type Contribution struct {
	// Paid is set once the member's contribution for the cycle is pulled
	// into custody.
	Paid bool

	// Commitment is the sealed bid commitment. The zero value means no
	// commitment was made.
	Commitment [32]byte

	// Revealed is set once the member has opened their commitment;
	// RevealedBid is the verified bid amount.
	Revealed    bool
	RevealedBid uint64
}

// HasCommitment reports whether a non-zero sealed commitment is stored.
func (c *Contribution) HasCommitment() bool {
	return c.Commitment != [32]byte{}
}
