package engine

import (
	"fmt"
	"time"

	"github.com/mmynk/tanda/internal/models"
)

// DistributePenaltyEscrow splits the pooled forfeited deposits among honest
// (non-defaulted) members once the group has COMPLETED. Callable by anyone;
// a zero escrow is a no-op. If everyone defaulted the escrow goes to the fee
// recipient so the funds are never stranded.
func (g *Group) DistributePenaltyEscrow(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusCompleted {
		return ErrGroupNotCompleted
	}
	if g.penaltyEscrow == 0 {
		return nil
	}

	var honest []string
	for _, m := range g.members {
		if m.Joined && !m.Defaulted {
			honest = append(honest, m.Address)
		}
	}

	// Clear the escrow before any transfer.
	total := g.penaltyEscrow
	g.penaltyEscrow = 0

	if len(honest) == 0 {
		g.emit(models.EventEscrowDistributed, 0, g.cfg.FeeRecipient, total, now)
		if err := g.tok.Transfer(g.ID, g.cfg.FeeRecipient, total); err != nil {
			return fmt.Errorf("escrow transfer: %w", err)
		}
		return nil
	}

	share := total / uint64(len(honest))
	rem := total % uint64(len(honest))
	var transfers []transfer
	for i, addr := range honest {
		amt := share
		if i == len(honest)-1 {
			amt += rem
		}
		if amt == 0 {
			continue
		}
		transfers = append(transfers, transfer{addr, amt})
		g.emit(models.EventEscrowDistributed, 0, addr, amt, now)
	}
	for _, tr := range transfers {
		if err := g.tok.Transfer(g.ID, tr.to, tr.amount); err != nil {
			return fmt.Errorf("escrow transfer to %s: %w", tr.to, err)
		}
	}
	return nil
}

// WithdrawSecurity refunds the caller's remaining security deposit after the
// group has COMPLETED. The deposit is zeroed before the transfer, so a
// second call fails with ErrNothingToRefund instead of double-paying.
func (g *Group) WithdrawSecurity(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if g.status != models.StatusCompleted {
		return ErrGroupNotCompleted
	}
	m := g.member(caller)
	if m == nil {
		return ErrNotMember
	}
	if m.SecurityDeposit == 0 {
		return ErrNothingToRefund
	}

	amount := m.SecurityDeposit
	m.SecurityDeposit = 0
	g.emit(models.EventSecurityRefunded, 0, caller, amount, now)

	if err := g.tok.Transfer(g.ID, caller, amount); err != nil {
		return fmt.Errorf("security refund: %w", err)
	}
	return nil
}

// WithdrawDevFee transfers the accrued platform fees to the fee recipient.
// Only the fee recipient may call it.
func (g *Group) WithdrawDevFee(caller string, now time.Time) error {
	release, err := g.guard()
	if err != nil {
		return err
	}
	defer release()

	if caller != g.cfg.FeeRecipient {
		return ErrNotFeeRecipient
	}
	if g.devFeeBalance == 0 {
		return ErrNoFees
	}

	amount := g.devFeeBalance
	g.devFeeBalance = 0
	g.emit(models.EventDevFeeWithdrawn, 0, caller, amount, now)

	if err := g.tok.Transfer(g.ID, caller, amount); err != nil {
		return fmt.Errorf("fee withdrawal: %w", err)
	}
	return nil
}
