package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mmynk/tanda/internal/models"
	"github.com/mmynk/tanda/internal/token"
)

const (
	testContribution = 100
	testDeposit      = 50
	testMint         = 10_000
)

var t0 = time.Unix(1_700_000_000, 0)

// fixture is a group with funded, pre-approved members and a reference time.
type fixture struct {
	g       *Group
	ledger  *token.Ledger
	members []string
}

func newFixture(t *testing.T, size int, totalCycles, feeBps uint64) *fixture {
	t.Helper()

	ledger := token.NewLedger()
	cfg := models.GroupConfig{
		FeeRecipient:    "fee-recipient",
		Size:            size,
		Contribution:    testContribution,
		SecurityDeposit: testDeposit,
		TotalCycles:     totalCycles,
		FeeBps:          feeBps,
		CycleDuration:   4 * time.Hour,
		PayWindow:       time.Hour,
		CommitWindow:    time.Hour,
		RevealWindow:    time.Hour,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	g := New("group-under-test", "Office Tanda", cfg, ledger, t0)

	members := make([]string, size)
	for i := range members {
		addr := fmt.Sprintf("m%d", i+1)
		ledger.Mint(addr, testMint)
		ledger.Approve(addr, g.ID, testMint)
		members[i] = addr
	}
	return &fixture{g: g, ledger: ledger, members: members}
}

func (f *fixture) joinAll(t *testing.T) {
	t.Helper()
	for _, m := range f.members {
		if err := f.g.Join(m, t0); err != nil {
			t.Fatalf("Join(%s) = %v", m, err)
		}
	}
}

func (f *fixture) pay(t *testing.T, member string, at time.Time) {
	t.Helper()
	if err := f.g.PayContribution(member, at); err != nil {
		t.Fatalf("PayContribution(%s) = %v", member, err)
	}
}

func (f *fixture) payAll(t *testing.T, at time.Time) {
	t.Helper()
	for _, m := range f.members {
		if f.g.member(m).Defaulted || !f.g.member(m).Joined {
			continue
		}
		f.pay(t, m, at)
	}
}

// commit computes the binding commitment for the current cycle and stores it.
func (f *fixture) commit(t *testing.T, member string, bid uint64, salt string, at time.Time) {
	t.Helper()
	c := Commitment(bid, []byte(salt), member, f.g.CurrentCycle(), f.g.ID)
	if err := f.g.CommitBid(member, c, at); err != nil {
		t.Fatalf("CommitBid(%s) = %v", member, err)
	}
}

func (f *fixture) reveal(t *testing.T, member string, bid uint64, salt string, at time.Time) {
	t.Helper()
	if err := f.g.RevealBid(member, bid, []byte(salt), at); err != nil {
		t.Fatalf("RevealBid(%s) = %v", member, err)
	}
}

func (f *fixture) cycleView(t *testing.T, n uint64) CycleView {
	t.Helper()
	v, ok := f.g.CycleSnapshot(n)
	if !ok {
		t.Fatalf("cycle %d not opened", n)
	}
	return v
}

// totalLedgerValue sums every account the fixture knows about, including
// group custody and the fee recipient.
func (f *fixture) totalLedgerValue() uint64 {
	total := f.ledger.BalanceOf(f.g.ID) + f.ledger.BalanceOf("fee-recipient")
	for _, m := range f.members {
		total += f.ledger.BalanceOf(m)
	}
	return total
}

func TestJoinLifecycle(t *testing.T) {
	f := newFixture(t, 3, 3, 0)

	// Paying before the group is active is rejected.
	if err := f.g.PayContribution("m1", t0); !errors.Is(err, ErrGroupNotActive) {
		t.Errorf("PayContribution before activation = %v, want ErrGroupNotActive", err)
	}

	if err := f.g.Join("m1", t0); err != nil {
		t.Fatalf("Join(m1) = %v", err)
	}
	if err := f.g.Join("m1", t0); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("second Join(m1) = %v, want ErrAlreadyJoined", err)
	}
	if got := f.ledger.BalanceOf(f.g.ID); got != testDeposit {
		t.Errorf("custody after one join = %d, want %d", got, testDeposit)
	}
	if f.g.Status() != models.StatusFilling {
		t.Errorf("status = %s, want FILLING", f.g.Status())
	}

	if err := f.g.Join("m2", t0); err != nil {
		t.Fatalf("Join(m2) = %v", err)
	}
	if err := f.g.Join("m3", t0); err != nil {
		t.Fatalf("Join(m3) = %v", err)
	}

	// The last join activates the group and opens cycle 1 atomically.
	if f.g.Status() != models.StatusActive {
		t.Fatalf("status = %s, want ACTIVE", f.g.Status())
	}
	if f.g.CurrentCycle() != 1 {
		t.Fatalf("current cycle = %d, want 1", f.g.CurrentCycle())
	}
	cyc := f.cycleView(t, 1)
	if cyc.Phase != models.PhaseCollecting {
		t.Errorf("cycle 1 phase = %s, want COLLECTING", cyc.Phase)
	}
	if !cyc.PayDeadline.Equal(t0.Add(time.Hour)) {
		t.Errorf("pay deadline = %v, want %v", cyc.PayDeadline, t0.Add(time.Hour))
	}
	if !cyc.CommitDeadline.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("commit deadline = %v, want %v", cyc.CommitDeadline, t0.Add(2*time.Hour))
	}
	if !cyc.RevealDeadline.Equal(t0.Add(3 * time.Hour)) {
		t.Errorf("reveal deadline = %v, want %v", cyc.RevealDeadline, t0.Add(3*time.Hour))
	}

	// The roster is full and the group is no longer filling.
	if err := f.g.Join("m4", t0); !errors.Is(err, ErrGroupNotFilling) {
		t.Errorf("Join after activation = %v, want ErrGroupNotFilling", err)
	}
}

func TestJoinRequiresIdentity(t *testing.T) {
	f := newFixture(t, 2, 2, 0)
	if err := f.g.Join("", t0); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("Join with empty address = %v, want ErrInvalidCaller", err)
	}
	if len(f.g.Snapshot().Members) != 0 {
		t.Errorf("roster not empty after rejected join")
	}
}

func TestJoinDepositPullFailure(t *testing.T) {
	f := newFixture(t, 2, 2, 0)

	poor := "no-allowance"
	f.ledger.Mint(poor, testMint)
	// No approval: the deposit pull must fail and the join must leave no trace.
	if err := f.g.Join(poor, t0); !errors.Is(err, token.ErrInsufficientAllowance) {
		t.Fatalf("Join without allowance = %v, want allowance error", err)
	}
	if len(f.g.Snapshot().Members) != 0 {
		t.Errorf("roster not empty after failed join")
	}
}

func TestPayContribution(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)

	payAt := t0.Add(10 * time.Minute)

	if err := f.g.PayContribution("stranger", payAt); !errors.Is(err, ErrNotMember) {
		t.Errorf("pay by non-member = %v, want ErrNotMember", err)
	}

	f.pay(t, "m1", payAt)
	if err := f.g.PayContribution("m1", payAt); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("double pay = %v, want ErrAlreadyPaid", err)
	}

	// Late payment is rejected once the pay deadline passes.
	if err := f.g.PayContribution("m2", t0.Add(2*time.Hour)); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("late pay = %v, want ErrWindowClosed", err)
	}

	f.pay(t, "m2", payAt)
	cyc := f.cycleView(t, 1)
	if cyc.Phase != models.PhaseCollecting {
		t.Fatalf("phase = %s before last payer, want COLLECTING", cyc.Phase)
	}

	// The final eligible payer flips the phase without waiting for the deadline.
	f.pay(t, "m3", payAt)
	cyc = f.cycleView(t, 1)
	if cyc.Phase != models.PhaseCommitting {
		t.Errorf("phase = %s after all paid, want COMMITTING", cyc.Phase)
	}
	if cyc.TotalContributions != 3*testContribution {
		t.Errorf("pool = %d, want %d", cyc.TotalContributions, 3*testContribution)
	}
	if cyc.ContributorCount != 3 {
		t.Errorf("contributor count = %d, want 3", cyc.ContributorCount)
	}

	if err := f.g.PayContribution("m1", payAt); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("pay in COMMITTING = %v, want ErrWrongPhase", err)
	}
}

func TestCommitBidPreconditions(t *testing.T) {
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)

	setup := func(t *testing.T) *fixture {
		f := newFixture(t, 3, 3, 0)
		f.joinAll(t)
		return f
	}
	goodCommitment := func(f *fixture, member string) [32]byte {
		return Commitment(50, []byte("salt"), member, 1, f.g.ID)
	}

	t.Run("wrong phase", func(t *testing.T) {
		f := setup(t)
		err := f.g.CommitBid("m1", goodCommitment(f, "m1"), commitAt)
		if !errors.Is(err, ErrWrongPhase) {
			t.Errorf("commit in COLLECTING = %v, want ErrWrongPhase", err)
		}
	})

	t.Run("zero commitment", func(t *testing.T) {
		f := setup(t)
		f.payAll(t, payAt)
		err := f.g.CommitBid("m1", [32]byte{}, commitAt)
		if !errors.Is(err, ErrZeroCommitment) {
			t.Errorf("zero commitment = %v, want ErrZeroCommitment", err)
		}
	})

	t.Run("already committed", func(t *testing.T) {
		f := setup(t)
		f.payAll(t, payAt)
		f.commit(t, "m1", 50, "salt", commitAt)
		err := f.g.CommitBid("m1", goodCommitment(f, "m1"), commitAt)
		if !errors.Is(err, ErrAlreadyCommitted) {
			t.Errorf("second commit = %v, want ErrAlreadyCommitted", err)
		}
	})

	t.Run("window closed", func(t *testing.T) {
		f := setup(t)
		f.payAll(t, payAt)
		err := f.g.CommitBid("m1", goodCommitment(f, "m1"), t0.Add(3*time.Hour))
		if !errors.Is(err, ErrWindowClosed) {
			t.Errorf("late commit = %v, want ErrWindowClosed", err)
		}
	})

	t.Run("non-member", func(t *testing.T) {
		f := setup(t)
		f.payAll(t, payAt)
		err := f.g.CommitBid("stranger", goodCommitment(f, "stranger"), commitAt)
		if !errors.Is(err, ErrNotMember) {
			t.Errorf("commit by stranger = %v, want ErrNotMember", err)
		}
	})
}

func TestRevealBidIntegrity(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)
	revealAt := t0.Add(2*time.Hour + 10*time.Minute)

	f.payAll(t, payAt)
	f.commit(t, "m1", 120, "salt-1", commitAt)
	f.commit(t, "m2", 80, "salt-2", commitAt)

	// Reveal only runs in the REVEALING phase.
	if err := f.g.RevealBid("m1", 120, []byte("salt-1"), commitAt); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("reveal in COMMITTING = %v, want ErrWrongPhase", err)
	}
	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToReveal = %v", err)
	}

	t.Run("wrong bid rejected", func(t *testing.T) {
		if err := f.g.RevealBid("m1", 121, []byte("salt-1"), revealAt); !errors.Is(err, ErrInvalidReveal) {
			t.Errorf("reveal with wrong bid = %v, want ErrInvalidReveal", err)
		}
	})

	t.Run("wrong salt rejected", func(t *testing.T) {
		if err := f.g.RevealBid("m1", 120, []byte("wrong"), revealAt); !errors.Is(err, ErrInvalidReveal) {
			t.Errorf("reveal with wrong salt = %v, want ErrInvalidReveal", err)
		}
	})

	t.Run("no commitment", func(t *testing.T) {
		if err := f.g.RevealBid("m3", 50, []byte("x"), revealAt); !errors.Is(err, ErrNoCommitment) {
			t.Errorf("reveal without commitment = %v, want ErrNoCommitment", err)
		}
	})

	t.Run("bid above pool rejected", func(t *testing.T) {
		f2 := newFixture(t, 2, 2, 0)
		f2.joinAll(t)
		f2.payAll(t, payAt)
		// Pool is 200; commit a bid above it.
		f2.commit(t, "m1", 500, "s", commitAt)
		if err := f2.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
			t.Fatalf("AdvanceToReveal = %v", err)
		}
		if err := f2.g.RevealBid("m1", 500, []byte("s"), revealAt); !errors.Is(err, ErrBidTooHigh) {
			t.Errorf("oversized bid = %v, want ErrBidTooHigh", err)
		}
	})

	t.Run("valid reveal then double reveal", func(t *testing.T) {
		f.reveal(t, "m1", 120, "salt-1", revealAt)
		if err := f.g.RevealBid("m1", 120, []byte("salt-1"), revealAt); !errors.Is(err, ErrAlreadyRevealed) {
			t.Errorf("double reveal = %v, want ErrAlreadyRevealed", err)
		}
	})
}

// A commitment copied from another member must not be revealable by the
// thief: the hash binds the bidder identity.
func TestCommitmentTheftRejected(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)

	f.payAll(t, payAt)

	// m2 observes m1's commitment on the wire and submits it as their own.
	stolen := Commitment(120, []byte("salt-1"), "m1", 1, f.g.ID)
	if err := f.g.CommitBid("m1", stolen, commitAt); err != nil {
		t.Fatalf("CommitBid(m1) = %v", err)
	}
	if err := f.g.CommitBid("m2", stolen, commitAt); err != nil {
		t.Fatalf("CommitBid(m2, stolen) = %v", err)
	}

	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToReveal = %v", err)
	}
	revealAt := t0.Add(2*time.Hour + 10*time.Minute)

	// m2 knows the opening values but the recomputed hash binds m2's own
	// identity, which cannot match the stolen commitment.
	if err := f.g.RevealBid("m2", 120, []byte("salt-1"), revealAt); !errors.Is(err, ErrInvalidReveal) {
		t.Errorf("stolen reveal = %v, want ErrInvalidReveal", err)
	}
	// The legitimate owner still reveals fine.
	f.reveal(t, "m1", 120, "salt-1", revealAt)
}

// Scenario A: five members all pay, one outbids the rest; settlement pays
// (pool - fee) - bid to the winner and spreads the bid over the other four.
func TestScenarioAFullAuction(t *testing.T) {
	f := newFixture(t, 5, 5, 100) // 1% fee
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)
	revealAt := t0.Add(2*time.Hour + 10*time.Minute)
	settleAt := t0.Add(3*time.Hour + 10*time.Minute)

	f.payAll(t, payAt)
	f.commit(t, "m1", 40, "s1", commitAt)
	f.commit(t, "m2", 100, "s2", commitAt)
	f.commit(t, "m3", 75, "s3", commitAt)
	f.commit(t, "m4", 10, "s4", commitAt)
	// m5 pays but never commits: not a candidate.

	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToReveal = %v", err)
	}
	f.reveal(t, "m1", 40, "s1", revealAt)
	f.reveal(t, "m2", 100, "s2", revealAt)
	f.reveal(t, "m3", 75, "s3", revealAt)
	// m4 committed but never reveals.

	before := f.ledger.BalanceOf("m2")
	if err := f.g.SettleCycle("anyone", settleAt); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}

	cyc := f.cycleView(t, 1)
	if cyc.Phase != models.PhaseSettled {
		t.Fatalf("phase = %s, want SETTLED", cyc.Phase)
	}
	if cyc.Winner != "m2" || cyc.WinningBid != 100 {
		t.Fatalf("winner = %s bid %d, want m2 bid 100", cyc.Winner, cyc.WinningBid)
	}

	// Pool 500, fee 5, net 495, bid 100 -> payout 395.
	if got := f.ledger.BalanceOf("m2") - before; got != 395 {
		t.Errorf("winner payout = %d, want 395", got)
	}
	// Discount 100 over four non-winning payers: 25 each.
	for _, m := range []string{"m1", "m3", "m4", "m5"} {
		got := f.ledger.BalanceOf(m)
		want := uint64(testMint - testDeposit - testContribution + 25)
		if got != want {
			t.Errorf("balance of %s = %d, want %d", m, got, want)
		}
	}
	if f.g.DevFeeBalance() != 5 {
		t.Errorf("dev fee balance = %d, want 5", f.g.DevFeeBalance())
	}

	// The winner stays a member but can never win again.
	if !f.g.Snapshot().Members[1].HasWon {
		t.Errorf("m2 hasWon not set")
	}
	if f.g.CurrentCycle() != 2 {
		t.Errorf("current cycle = %d, want 2", f.g.CurrentCycle())
	}
	cyc2 := f.cycleView(t, 2)
	if !cyc2.StartTime.Equal(t0.Add(4 * time.Hour)) {
		t.Errorf("cycle 2 start = %v, want %v", cyc2.StartTime, t0.Add(4*time.Hour))
	}
}

// Scenario B: a member who never pays is defaulted at the pay deadline,
// their deposit moves to penalty escrow, and they are shut out of every
// later cycle.
func TestScenarioBDefault(t *testing.T) {
	f := newFixture(t, 5, 5, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)

	for _, m := range []string{"m1", "m2", "m3", "m4"} {
		f.pay(t, m, payAt)
	}
	// m5 never pays.

	if err := f.g.ProcessDefaults("anyone", payAt); !errors.Is(err, ErrDeadlineNotPassed) {
		t.Fatalf("early ProcessDefaults = %v, want ErrDeadlineNotPassed", err)
	}
	if err := f.g.ProcessDefaults("anyone", t0.Add(time.Hour+time.Minute)); err != nil {
		t.Fatalf("ProcessDefaults = %v", err)
	}

	if f.g.PenaltyEscrow() != testDeposit {
		t.Errorf("penalty escrow = %d, want %d", f.g.PenaltyEscrow(), testDeposit)
	}
	snap := f.g.Snapshot()
	if !snap.Members[4].Defaulted || snap.Members[4].SecurityDeposit != 0 {
		t.Errorf("m5 not defaulted with zeroed deposit: %+v", snap.Members[4])
	}
	cyc := f.cycleView(t, 1)
	if cyc.Phase != models.PhaseCommitting {
		t.Errorf("phase = %s after default processing, want COMMITTING", cyc.Phase)
	}

	// A second call is a rejected no-op, not a double-advance.
	if err := f.g.ProcessDefaults("anyone", t0.Add(2*time.Hour)); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("repeat ProcessDefaults = %v, want ErrWrongPhase", err)
	}

	// The defaulter is excluded from bidding now and paying later.
	c := Commitment(10, []byte("s"), "m5", 1, f.g.ID)
	if err := f.g.CommitBid("m5", c, t0.Add(90*time.Minute)); !errors.Is(err, ErrMemberDefaulted) {
		t.Errorf("defaulter commit = %v, want ErrMemberDefaulted", err)
	}

	f.commit(t, "m1", 0, "s", t0.Add(90*time.Minute))
	if err := f.g.SettleCycle("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}

	// Cycle 2: only the four honest members are expected; when they all
	// pay the phase advances, proving m5 is out of the eligible count.
	payAt2 := t0.Add(4*time.Hour + 10*time.Minute)
	if err := f.g.PayContribution("m5", payAt2); !errors.Is(err, ErrMemberDefaulted) {
		t.Errorf("defaulter pay = %v, want ErrMemberDefaulted", err)
	}
	for _, m := range []string{"m1", "m2", "m3", "m4"} {
		f.pay(t, m, payAt2)
	}
	if got := f.cycleView(t, 2).Phase; got != models.PhaseCommitting {
		t.Errorf("cycle 2 phase = %s after 4 payers, want COMMITTING", got)
	}
}

// Scenario C: everyone commits, nobody reveals; settlement still picks the
// first candidate in roster order with bid zero.
func TestScenarioCNoReveals(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)

	f.payAll(t, payAt)
	f.commit(t, "m1", 30, "s1", commitAt)
	f.commit(t, "m2", 60, "s2", commitAt)
	f.commit(t, "m3", 90, "s3", commitAt)

	if err := f.g.SettleCycle("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}
	cyc := f.cycleView(t, 1)
	if cyc.Winner != "m1" || cyc.WinningBid != 0 {
		t.Errorf("winner = %s bid %d, want m1 bid 0", cyc.Winner, cyc.WinningBid)
	}
	// Whole pool (no fee) goes to the fallback winner.
	want := uint64(testMint - testDeposit - testContribution + 300)
	if got := f.ledger.BalanceOf("m1"); got != want {
		t.Errorf("m1 balance = %d, want %d", got, want)
	}
}

// Scenario D: with a single eligible candidate the auction is skipped and
// the candidate wins with bid zero.
func TestScenarioDSingleCandidate(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)

	f.payAll(t, payAt)
	// Only m2 commits; m1 and m3 paid but are not candidates.
	f.commit(t, "m2", 150, "s2", commitAt)

	if err := f.g.SettleCycle("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}
	cyc := f.cycleView(t, 1)
	if cyc.Winner != "m2" || cyc.WinningBid != 0 {
		t.Errorf("winner = %s bid %d, want m2 bid 0 (no auction)", cyc.Winner, cyc.WinningBid)
	}
}

func TestTieBreakRosterOrder(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)
	revealAt := t0.Add(2*time.Hour + 10*time.Minute)

	f.payAll(t, payAt)
	f.commit(t, "m1", 80, "s1", commitAt)
	f.commit(t, "m2", 80, "s2", commitAt)
	f.commit(t, "m3", 80, "s3", commitAt)
	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToReveal = %v", err)
	}
	// Reveal in reverse order; roster order must still decide the tie.
	f.reveal(t, "m3", 80, "s3", revealAt)
	f.reveal(t, "m2", 80, "s2", revealAt)
	f.reveal(t, "m1", 80, "s1", revealAt)

	if err := f.g.SettleCycle("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}
	if got := f.cycleView(t, 1).Winner; got != "m1" {
		t.Errorf("tie winner = %s, want m1 (first in roster)", got)
	}
}

func TestWonMemberCannotCommitAgain(t *testing.T) {
	f := newFixture(t, 3, 3, 0)
	f.joinAll(t)
	payAt := t0.Add(10 * time.Minute)
	commitAt := t0.Add(20 * time.Minute)

	f.payAll(t, payAt)
	f.commit(t, "m1", 0, "s1", commitAt)
	if err := f.g.SettleCycle("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("SettleCycle = %v", err)
	}
	if got := f.cycleView(t, 1).Winner; got != "m1" {
		t.Fatalf("winner = %s, want m1", got)
	}

	// Cycle 2: the winner still pays but may not commit.
	payAt2 := t0.Add(4*time.Hour + 10*time.Minute)
	f.payAll(t, payAt2)
	c := Commitment(10, []byte("s"), "m1", 2, f.g.ID)
	if err := f.g.CommitBid("m1", c, t0.Add(4*time.Hour+20*time.Minute)); !errors.Is(err, ErrAlreadyWon) {
		t.Errorf("won member commit = %v, want ErrAlreadyWon", err)
	}
}

func TestPhaseAdvanceRejections(t *testing.T) {
	f := newFixture(t, 2, 2, 0)
	f.joinAll(t)
	f.payAll(t, t0.Add(10*time.Minute))

	// COMMITTING: advancing before the deadline fails.
	if err := f.g.AdvanceToReveal("anyone", t0.Add(90*time.Minute)); !errors.Is(err, ErrDeadlineNotPassed) {
		t.Errorf("early AdvanceToReveal = %v, want ErrDeadlineNotPassed", err)
	}
	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToReveal = %v", err)
	}
	// Repeating a consumed advance is a rejected no-op.
	if err := f.g.AdvanceToReveal("anyone", t0.Add(2*time.Hour+2*time.Minute)); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("repeat AdvanceToReveal = %v, want ErrWrongPhase", err)
	}

	if err := f.g.AdvanceToSettlement("anyone", t0.Add(2*time.Hour+30*time.Minute)); !errors.Is(err, ErrDeadlineNotPassed) {
		t.Errorf("early AdvanceToSettlement = %v, want ErrDeadlineNotPassed", err)
	}
	if err := f.g.AdvanceToSettlement("anyone", t0.Add(3*time.Hour+time.Minute)); err != nil {
		t.Fatalf("AdvanceToSettlement = %v", err)
	}
	if err := f.g.AdvanceToSettlement("anyone", t0.Add(3*time.Hour+2*time.Minute)); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("repeat AdvanceToSettlement = %v, want ErrWrongPhase", err)
	}
}
