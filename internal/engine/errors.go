package engine

import "errors"

// Every failure is a named precondition violation; the call aborts with no
// partial state change and the engine never retries on its own.
var (
	// Admission errors
	ErrInvalidCaller     = errors.New("caller identity required")
	ErrGroupFull         = errors.New("group is full")
	ErrAlreadyJoined     = errors.New("caller already joined")
	ErrGroupNotFilling   = errors.New("group is not filling")
	ErrGroupNotActive    = errors.New("group is not active")
	ErrGroupNotCompleted = errors.New("group is not completed")

	// Authorization errors
	ErrNotMember       = errors.New("caller is not a member")
	ErrMemberDefaulted = errors.New("caller has defaulted")
	ErrNotFeeRecipient = errors.New("caller is not the fee recipient")

	// Timing errors
	ErrWindowClosed      = errors.New("window closed")
	ErrDeadlineNotPassed = errors.New("deadline not yet passed")
	ErrWrongPhase        = errors.New("cycle is in the wrong phase")

	// Auction-integrity errors
	ErrAlreadyPaid      = errors.New("contribution already paid")
	ErrNotPaid          = errors.New("contribution not paid this cycle")
	ErrAlreadyCommitted = errors.New("bid already committed")
	ErrZeroCommitment   = errors.New("commitment must be non-zero")
	ErrNoCommitment     = errors.New("no commitment to reveal")
	ErrAlreadyRevealed  = errors.New("bid already revealed")
	ErrInvalidReveal    = errors.New("reveal does not match commitment")
	ErrBidTooHigh       = errors.New("bid exceeds cycle pool")
	ErrAlreadyWon       = errors.New("caller has already won a cycle")

	// Settlement errors
	ErrNotReadyToSettle = errors.New("cycle is not ready to settle")

	// Withdrawal errors
	ErrNothingToRefund = errors.New("nothing to refund")
	ErrNoFees          = errors.New("no fees to withdraw")

	// Reentrancy guard
	ErrReentrantCall = errors.New("reentrant call")
)
