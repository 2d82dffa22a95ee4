package engine

import (
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// ProcessDefaults penalizes every eligible member who has not paid the
// current cycle, then advances COLLECTING -> COMMITTING regardless of how
// many paid. Callable by anyone once the pay deadline has passed.
func (g *Group) ProcessDefaults(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	cyc := g.cycle()
	if cyc.Phase != models.PhaseCollecting {
		return ErrWrongPhase
	}
	if !now.After(cyc.PayDeadline) {
		return ErrDeadlineNotPassed
	}
	g.processDefaults(cyc, now)
	return nil
}

// processDefaults is the deadline-gated COLLECTING -> COMMITTING transition.
// The caller has already checked the gate.
func (g *Group) processDefaults(cyc *models.Cycle, now time.Time) {
	for _, m := range g.members {
		if !m.Eligible() {
			continue
		}
		c := g.contributionIfAny(cyc.Number, m.Address)
		if c != nil && c.Paid {
			continue
		}
		// Forfeit the entire remaining deposit into penalty escrow.
		forfeited := m.SecurityDeposit
		m.SecurityDeposit = 0
		m.Defaulted = true
		g.penaltyEscrow += forfeited
		g.emit(models.EventMemberDefaulted, cyc.Number, m.Address, forfeited, now)
	}
	cyc.Phase = models.PhaseCommitting
	g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
}

// AdvanceToReveal moves COMMITTING -> REVEALING once the commit deadline has
// passed. Callable by anyone; no action on members.
func (g *Group) AdvanceToReveal(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	cyc := g.cycle()
	if cyc.Phase != models.PhaseCommitting {
		return ErrWrongPhase
	}
	if !now.After(cyc.CommitDeadline) {
		return ErrDeadlineNotPassed
	}
	cyc.Phase = models.PhaseRevealing
	g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
	return nil
}

// AdvanceToSettlement moves REVEALING -> READY_TO_SETTLE once the reveal
// deadline has passed. Callable by anyone.
func (g *Group) AdvanceToSettlement(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	cyc := g.cycle()
	if cyc.Phase != models.PhaseRevealing {
		return ErrWrongPhase
	}
	if !now.After(cyc.RevealDeadline) {
		return ErrDeadlineNotPassed
	}
	cyc.Phase = models.PhaseReadyToSettle
	g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
	return nil
}

// autoAdvance walks the cycle through every phase whose deadline already
// elapsed, so a single settle call suffices for liveness: nobody ever has to
// invoke the intermediate advances in sequence.
func (g *Group) autoAdvance(cyc *models.Cycle, now time.Time) {
	if cyc.Phase == models.PhaseCollecting && now.After(cyc.PayDeadline) {
		g.processDefaults(cyc, now)
	}
	if cyc.Phase == models.PhaseCommitting && now.After(cyc.CommitDeadline) {
		cyc.Phase = models.PhaseRevealing
		g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
	}
	if cyc.Phase == models.PhaseRevealing && now.After(cyc.RevealDeadline) {
		cyc.Phase = models.PhaseReadyToSettle
		g.emit(models.EventPhaseAdvanced, cyc.Number, "", 0, now)
	}
}
