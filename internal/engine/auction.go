package engine

import (
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// CommitBid stores the caller's sealed commitment for the current cycle.
// Only members who are non-defaulted, have not yet won, and have paid this
// cycle's contribution may commit; the cycle must be COMMITTING and before
// the commit deadline. A commitment, once stored, is immutable.
func (g *Group) CommitBid(caller string, commitment [32]byte, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	m := g.member(caller)
	if m == nil {
		return ErrNotMember
	}
	if m.Defaulted {
		return ErrMemberDefaulted
	}
	if m.HasWon {
		return ErrAlreadyWon
	}

	cyc := g.cycle()
	if cyc.Phase != models.PhaseCommitting {
		return ErrWrongPhase
	}
	if now.After(cyc.CommitDeadline) {
		return fmt.Errorf("commit window: %w", ErrWindowClosed)
	}
	if commitment == [32]byte{} {
		return ErrZeroCommitment
	}

	c := g.contributionIfAny(cyc.Number, caller)
	if c == nil || !c.Paid {
		return ErrNotPaid
	}
	if c.HasCommitment() {
		return ErrAlreadyCommitted
	}

	c.Commitment = commitment
	g.emit(models.EventBidCommitted, cyc.Number, caller, 0, now)
	return nil
}

// RevealBid opens the caller's commitment. The engine recomputes the binding
// hash over (bid, salt, caller, cycle, group ID) and rejects the reveal
// unless it matches the stored commitment, so a copied commitment cannot be
// replayed as someone else's bid. The bid is capped at the cycle's pool.
func (g *Group) RevealBid(caller string, bid uint64, salt []byte, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	if g.member(caller) == nil {
		return ErrNotMember
	}

	cyc := g.cycle()
	if cyc.Phase != models.PhaseRevealing {
		return ErrWrongPhase
	}
	if now.After(cyc.RevealDeadline) {
		return fmt.Errorf("reveal window: %w", ErrWindowClosed)
	}

	c := g.contributionIfAny(cyc.Number, caller)
	if c == nil || !c.HasCommitment() {
		return ErrNoCommitment
	}
	if c.Revealed {
		return ErrAlreadyRevealed
	}
	if bid > cyc.TotalContributions {
		return ErrBidTooHigh
	}

	if Commitment(bid, salt, caller, cyc.Number, g.ID) != c.Commitment {
		return ErrInvalidReveal
	}

	c.Revealed = true
	c.RevealedBid = bid
	g.emit(models.EventBidRevealed, cyc.Number, caller, bid, now)
	return nil
}

// selectWinner computes the winner of a cycle from the eligible set: members
// who are joined, not defaulted, have not won, paid this cycle, and hold a
// commitment. Holding only a paid contribution without a commitment does not
// make a member a candidate.
//
// Returns "" when the set is empty. With one candidate the auction is
// skipped and the bid is zero. Otherwise the highest revealed bid wins, ties
// broken by roster order; if nobody revealed, the first candidate in roster
// order wins with bid zero.
func (g *Group) selectWinner(cyc *models.Cycle) (winner string, winningBid uint64) {
	var candidates []*models.Member
	for _, m := range g.members {
		if !m.EligibleToWin() {
			continue
		}
		c := g.contributionIfAny(cyc.Number, m.Address)
		if c == nil || !c.Paid || !c.HasCommitment() {
			continue
		}
		candidates = append(candidates, m)
	}

	if len(candidates) == 0 {
		return "", 0
	}
	if len(candidates) == 1 {
		return candidates[0].Address, 0
	}

	for _, m := range candidates {
		c := g.contributionIfAny(cyc.Number, m.Address)
		if !c.Revealed {
			continue
		}
		// Strict > keeps the first-in-roster member on ties.
		if winner == "" || c.RevealedBid > winningBid {
			winner = m.Address
			winningBid = c.RevealedBid
		}
	}
	if winner == "" {
		// Nobody revealed: fall back to roster order rather than stall.
		return candidates[0].Address, 0
	}
	return winner, winningBid
}
