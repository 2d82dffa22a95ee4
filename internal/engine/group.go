// Package engine implements the per-group savings engine: membership, the
// cycle phase state machine, the commit-reveal sealed-bid auction, and the
// settlement/escrow ledger. One Group value owns the whole state of one
// savings group; every mutating operation takes the caller identity and the
// current timestamp as explicit inputs so the engine is deterministic under
// test.
//
// The engine assumes serialized execution: callers (the registry) must not
// interleave operations on the same Group. State changes within one
// operation are committed before any transfer into the token ledger, and an
// explicit guard rejects reentrant entry.
package engine

import (
	"time"

	"github.com/mmynk/tanda/internal/models"
	"github.com/mmynk/tanda/internal/token"
)

// Group is the full state of one savings group plus its engine operations.
type Group struct {
	// ID is the group's stable identity (UUID). It is the custody account
	// on the token ledger and a binding input of every bid commitment.
	ID string

	// Name is the display name of the group.
	Name string

	cfg    models.GroupConfig
	status models.GroupStatus

	// currentCycle is the active round number, 1-based; zero while FILLING.
	currentCycle uint64

	// members is the roster in join order. Roster order is the tie-break
	// order everywhere a deterministic pick is needed.
	members   []*models.Member
	memberIdx map[string]int

	cycles        map[uint64]*models.Cycle
	contributions map[uint64]map[string]*models.Contribution

	// penaltyEscrow pools forfeited deposits; devFeeBalance accrues the
	// per-cycle platform fee. Both live inside the custody account until
	// withdrawn.
	penaltyEscrow uint64
	devFeeBalance uint64

	tok token.Token

	// events is the append-only transition log; seq numbers it. drained
	// marks how far the service layer has persisted.
	events  []models.Event
	seq     uint64
	drained int

	inCall bool

	createdAt time.Time
}

// New creates a group in FILLING state. The config must already be
// validated (the registry does this).
func New(id, name string, cfg models.GroupConfig, tok token.Token, now time.Time) *Group {
	g := &Group{
		ID:            id,
		Name:          name,
		cfg:           cfg,
		status:        models.StatusFilling,
		memberIdx:     make(map[string]int),
		cycles:        make(map[uint64]*models.Cycle),
		contributions: make(map[uint64]map[string]*models.Contribution),
		tok:           tok,
		createdAt:     now,
	}
	g.emit(models.EventGroupCreated, 0, "", 0, now)
	return g
}

// guard arms the reentrancy flag for one operation. Usage:
//
//	release, err := g.guard()
//	if err != nil { return err }
//	defer release()
func (g *Group) guard() (func(), error) {
	if g.inCall {
		return nil, ErrReentrantCall
	}
	g.inCall = true
	return func() { g.inCall = false }, nil
}

func (g *Group) emit(t models.EventType, cycle uint64, actor string, amount uint64, at time.Time) {
	g.seq++
	g.events = append(g.events, models.Event{
		Seq: g.seq, Type: t, Cycle: cycle, Actor: actor, Amount: amount, At: at,
	})
}

// DrainEvents returns the events appended since the previous drain. The
// engine never reads its own log; this is the hook the service layer uses to
// persist and index transitions.
func (g *Group) DrainEvents() []models.Event {
	out := g.events[g.drained:]
	g.drained = len(g.events)
	return out
}

func (g *Group) member(addr string) *models.Member {
	i, ok := g.memberIdx[addr]
	if !ok {
		return nil
	}
	return g.members[i]
}

func (g *Group) cycle() *models.Cycle {
	return g.cycles[g.currentCycle]
}

// contribution returns the caller's record for a cycle, creating it lazily.
func (g *Group) contribution(cycle uint64, addr string) *models.Contribution {
	byAddr := g.contributions[cycle]
	if byAddr == nil {
		byAddr = make(map[string]*models.Contribution)
		g.contributions[cycle] = byAddr
	}
	c := byAddr[addr]
	if c == nil {
		c = &models.Contribution{}
		byAddr[addr] = c
	}
	return c
}

// contributionIfAny is like contribution but never allocates.
func (g *Group) contributionIfAny(cycle uint64, addr string) *models.Contribution {
	return g.contributions[cycle][addr]
}

// eligibleCount is the number of members expected to pay the current cycle:
// joined and not defaulted. Won members keep paying.
func (g *Group) eligibleCount() int {
	n := 0
	for _, m := range g.members {
		if m.Eligible() {
			n++
		}
	}
	return n
}

// anyEligibleWinnerRemains reports whether a future cycle could still
// produce a winner.
func (g *Group) anyEligibleWinnerRemains() bool {
	for _, m := range g.members {
		if m.EligibleToWin() {
			return true
		}
	}
	return false
}

// openCycle arms round n starting at start, deriving the three deadlines
// from the cumulative window durations.
func (g *Group) openCycle(n uint64, start time.Time) {
	payDeadline := start.Add(g.cfg.PayWindow)
	commitDeadline := payDeadline.Add(g.cfg.CommitWindow)
	revealDeadline := commitDeadline.Add(g.cfg.RevealWindow)
	g.cycles[n] = &models.Cycle{
		Number:         n,
		Phase:          models.PhaseCollecting,
		StartTime:      start,
		PayDeadline:    payDeadline,
		CommitDeadline: commitDeadline,
		RevealDeadline: revealDeadline,
	}
	g.emit(models.EventCycleOpened, n, "", 0, start)
}

func (g *Group) complete(now time.Time) {
	g.status = models.StatusCompleted
	g.emit(models.EventGroupCompleted, g.currentCycle, "", 0, now)
}
