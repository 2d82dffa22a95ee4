// Package models defines the core domain models for Tanda.
//
// # Current Models
//
// The following models make up the state of one savings group:
//   - GroupConfig: Immutable parameters fixed at group creation
//   - Member: Per-participant state, mutated over the group's life
//   - Cycle: One contribution + auction + payout round
//   - Contribution: One member's payment/commit/reveal record for one cycle
//   - Event: One append-only record per state transition
//   - User: Registered account used to authenticate API callers
//
// # Design Principles
//
// 1. **Explicit state**: No hidden globals; every model is owned by exactly one
//    engine instance and mutated only through its operations
// 2. **Integer money**: All amounts are uint64 in the token's smallest unit, so
//    distribution math is exact (floor division plus an explicit remainder)
// 3. **Avoid circular references**: Models reference each other by ID/address
//    strings instead of pointers
//
// # Lifecycle
//
// A group is created FILLING, becomes ACTIVE when the last member joins, and
// COMPLETED after the last cycle settles (or earlier, if no eligible winner
// remains). Within a cycle the phase advances strictly forward:
// COLLECTING -> COMMITTING -> REVEALING -> READY_TO_SETTLE -> SETTLED.
package models
