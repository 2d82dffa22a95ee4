package engine

import (
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// transfer is a queued outgoing payment. Settlement commits all state first
// and executes its transfers last, so the token ledger is never entered with
// half-updated engine state.
type transfer struct {
	to     string
	amount uint64
}

// SettleCycle resolves the current cycle: it auto-advances any phase whose
// deadline already elapsed, selects a winner from the eligible set, marks
// the cycle SETTLED, executes the payout and discount distribution, and
// either opens the next cycle or completes the group.
//
// The operation is the liveness anchor of the whole engine: for any cycle
// with at least one eligible candidate a single call terminates in SETTLED
// with a winner, even with zero reveals or zero payers.
func (g *Group) SettleCycle(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusActive {
		return ErrGroupNotActive
	}
	cyc := g.cycle()

	// Reject before walking the phases: a call that cannot reach settlement
	// leaves no trace, not even the elapsed-phase advances. The deadlines
	// are ordered, so being past the reveal deadline means every earlier
	// phase can be advanced through.
	if cyc.Phase != models.PhaseReadyToSettle && !now.After(cyc.RevealDeadline) {
		return fmt.Errorf("%w: phase %s", ErrNotReadyToSettle, cyc.Phase)
	}
	g.autoAdvance(cyc, now)

	winner, winningBid := g.selectWinner(cyc)
	if winner == "" {
		// No candidate at all: the cycle settles without a winner and the
		// group ends early instead of freezing funds.
		cyc.Phase = models.PhaseSettled
		g.emit(models.EventCycleSettled, cyc.Number, "", 0, now)
		g.complete(now)
		return nil
	}

	g.member(winner).HasWon = true
	cyc.Winner = winner
	cyc.WinningBid = winningBid

	payout, discount, devFee := splitPool(cyc.TotalContributions, g.cfg.FeeBps, winningBid)
	g.devFeeBalance += devFee

	// Discount recipients: paid this cycle, not the winner, not defaulted.
	// Roster order; the integer-division remainder goes to the last one so
	// the distributed shares sum exactly to the discount.
	var recipients []string
	for _, m := range g.members {
		if m.Address == winner || m.Defaulted {
			continue
		}
		c := g.contributionIfAny(cyc.Number, m.Address)
		if c != nil && c.Paid {
			recipients = append(recipients, m.Address)
		}
	}
	if len(recipients) == 0 {
		// Nobody to discount to; fold it into the payout instead of
		// stranding it in custody.
		payout += discount
		discount = 0
	}

	cyc.Phase = models.PhaseSettled
	g.emit(models.EventCycleSettled, cyc.Number, winner, payout, now)

	var transfers []transfer
	if payout > 0 {
		transfers = append(transfers, transfer{winner, payout})
	}
	if discount > 0 {
		share := discount / uint64(len(recipients))
		rem := discount % uint64(len(recipients))
		for i, addr := range recipients {
			amt := share
			if i == len(recipients)-1 {
				amt += rem
			}
			if amt == 0 {
				continue
			}
			transfers = append(transfers, transfer{addr, amt})
			g.emit(models.EventDiscountPaid, cyc.Number, addr, amt, now)
		}
	}

	// Arm the next round, or finish. Clamping the next start forward to now
	// prevents stacking up missed cycles whose deadlines are already past.
	if cyc.Number >= g.cfg.TotalCycles || !g.anyEligibleWinnerRemains() {
		g.complete(now)
	} else {
		next := cyc.StartTime.Add(g.cfg.CycleDuration)
		if next.Before(now) {
			next = now
		}
		g.currentCycle = cyc.Number + 1
		g.openCycle(g.currentCycle, next)
	}

	// All state is committed; move the money.
	for _, tr := range transfers {
		if err := g.tok.Transfer(g.ID, tr.to, tr.amount); err != nil {
			return fmt.Errorf("settlement transfer to %s: %w", tr.to, err)
		}
	}
	return nil
}

// splitPool computes the settlement split for a pool P at fee rate feeBps
// with winning bid B:
//
//	devFee = P*F/10000
//	net    = P - devFee
//	payout = net - min(B, net)
//	discount = min(B, net)
//
// A degenerate fee rate that consumes the whole pool pays the winner
// nothing and distributes nothing.
func splitPool(pool, feeBps, bid uint64) (payout, discount, devFee uint64) {
	devFee = pool * feeBps / 10000
	if pool <= devFee {
		return 0, 0, pool
	}
	net := pool - devFee
	if bid > net {
		bid = net
	}
	return net - bid, bid, devFee
}
