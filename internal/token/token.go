// Package token provides the value-custody interface the group engine moves
// funds through, plus an in-memory ledger implementation.
package token

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is the transfer surface the engine depends on. A failed transfer
// must abort the caller's whole operation, never silently continue.
type Token interface {
	// TransferFrom moves amount from `from` to `to`, consuming an allowance
	// `from` previously granted to `to`. Used to pull deposits and
	// contributions into group custody.
	TransferFrom(from, to string, amount uint64) error

	// Transfer moves amount from `from` to `to` directly. Used to push
	// payouts, discounts and refunds out of group custody.
	Transfer(from, to string, amount uint64) error

	// BalanceOf returns the current balance of an account.
	BalanceOf(account string) uint64
}

// Ensure Ledger implements Token
var _ Token = (*Ledger)(nil)

// Ledger is an in-memory Token with standard balance/allowance semantics.
// It is the custody backend for a single server process; tests mint balances
// directly.
type Ledger struct {
	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[string]map[string]uint64 // owner -> spender -> amount
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// Mint credits amount to an account out of thin air.
func (l *Ledger) Mint(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

// Approve grants spender the right to pull up to amount from owner. The
// grant replaces any previous allowance.
func (l *Ledger) Approve(owner, spender string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[string]uint64)
	}
	l.allowances[owner][spender] = amount
}

// Allowance returns the remaining amount spender may pull from owner.
func (l *Ledger) Allowance(owner, spender string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// TransferFrom moves amount from owner to spender, consuming allowance.
func (l *Ledger) TransferFrom(from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[from][to]
	if allowed < amount {
		return fmt.Errorf("pull %d from %s: %w (allowed %d)", amount, from, ErrInsufficientAllowance, allowed)
	}
	if l.balances[from] < amount {
		return fmt.Errorf("pull %d from %s: %w (balance %d)", amount, from, ErrInsufficientBalance, l.balances[from])
	}
	l.allowances[from][to] = allowed - amount
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[from] < amount {
		return fmt.Errorf("transfer %d from %s: %w (balance %d)", amount, from, ErrInsufficientBalance, l.balances[from])
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// BalanceOf returns the current balance of an account.
func (l *Ledger) BalanceOf(account string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}
