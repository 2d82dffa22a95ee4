package models

import "time"

// EventType identifies the state transition an Event records.
type EventType string

const (
	EventGroupCreated      EventType = "group_created"
	EventMemberJoined      EventType = "member_joined"
	EventGroupActivated    EventType = "group_activated"
	EventCycleOpened       EventType = "cycle_opened"
	EventContributionPaid  EventType = "contribution_paid"
	EventBidCommitted      EventType = "bid_committed"
	EventBidRevealed       EventType = "bid_revealed"
	EventMemberDefaulted   EventType = "member_defaulted"
	EventPhaseAdvanced     EventType = "phase_advanced"
	EventCycleSettled      EventType = "cycle_settled"
	EventDiscountPaid      EventType = "discount_paid"
	EventGroupCompleted    EventType = "group_completed"
	EventEscrowDistributed EventType = "escrow_distributed"
	EventSecurityRefunded  EventType = "security_refunded"
	EventDevFeeWithdrawn   EventType = "dev_fee_withdrawn"
)

// Event is one record on a group's append-only transition log. The engine
// only ever writes events; consumers (indexer, UI, metrics) reconstruct
// state from the stream without re-deriving it.
type Event struct {
	// Seq is the 1-based position in the group's event stream.
	Seq uint64

	Type EventType

	// Cycle is the round the event belongs to; zero for group-level events
	// such as joins and final withdrawals.
	Cycle uint64

	// Actor is the account that triggered or is the subject of the
	// transition (joiner, payer, bidder, defaulter, winner, recipient).
	Actor string

	// Amount is the value moved or recorded by the transition, if any.
	Amount uint64

	// At is the engine timestamp the transition was applied with.
	At time.Time
}
