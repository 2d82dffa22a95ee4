package engine

import (
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// Join admits the caller while the group is FILLING. The security deposit is
// pulled from the caller into group custody; if the pull fails the join is
// rejected whole. When the N-th member joins the group activates and cycle 1
// opens immediately.
func (g *Group) Join(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	// The empty address is the engine's own "no winner" marker and may
	// never name a member.
	if caller == "" {
		return ErrInvalidCaller
	}
	if g.status != models.StatusFilling {
		return ErrGroupNotFilling
	}
	if g.member(caller) != nil {
		return ErrAlreadyJoined
	}
	if len(g.members) >= g.cfg.Size {
		return ErrGroupFull
	}

	if err := g.tok.TransferFrom(caller, g.ID, g.cfg.SecurityDeposit); err != nil {
		return fmt.Errorf("collect security deposit: %w", err)
	}

	g.memberIdx[caller] = len(g.members)
	g.members = append(g.members, &models.Member{
		Address:         caller,
		Joined:          true,
		SecurityDeposit: g.cfg.SecurityDeposit,
	})
	g.emit(models.EventMemberJoined, 0, caller, g.cfg.SecurityDeposit, now)

	// Last seat taken: activate and open round 1 in the same operation.
	if len(g.members) == g.cfg.Size {
		g.status = models.StatusActive
		g.currentCycle = 1
		g.emit(models.EventGroupActivated, 0, "", 0, now)
		g.openCycle(1, now)
	}
	return nil
}

// PayContribution pulls the caller's contribution for the current cycle into
// custody. Valid only in COLLECTING before the pay deadline. The instant the
// number of payers reaches the number of still-eligible members the cycle
// advances to COMMITTING on its own.
func (g *Group) PayContribution(caller string, now time.Time) error {
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

	cyc := g.cycle()
	if cyc.Phase != models.PhaseCollecting {
		return ErrWrongPhase
	}
	if now.After(cyc.PayDeadline) {
		return fmt.Errorf("pay window: %w", ErrWindowClosed)
	}
	if c := g.contributionIfAny(cyc.Number, caller); c != nil && c.Paid {
		return ErrAlreadyPaid
	}

	if err := g.tok.TransferFrom(caller, g.ID, g.cfg.Contribution); err != nil {
		return fmt.Errorf("collect contribution: %w", err)
	}

	c := g.contribution(cyc.Number, caller)
	c.Paid = true
	cyc.TotalContributions += g.cfg.Contribution
	cyc.ContributorCount++
	g.emit(models.EventContributionPaid, cyc.Number, caller, g.cfg.Contribution, now)

	if cyc.ContributorCount == g.eligibleCount() {
		cyc.Phase = models.PhaseCommitting
		g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
	}
	return nil
}
