package sale

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openraise/libraise-go/config"
	"github.com/openraise/libraise-go/ledger"
)

var testStart = time.Unix(1_700_000_000, 0).UTC()

type transfer struct {
	who    string
	amount uint64
}

// fakeGateway records pulls and pushes and can be armed to fail or to call
// back into the sale mid-transfer.
type fakeGateway struct {
	pulls  []transfer
	pushes []transfer

	pullErr error
	pushErr error
	onPush  func()
}

func (g *fakeGateway) Pull(ctx context.Context, from string, amount uint64) error {
	if g.pullErr != nil {
		return g.pullErr
	}
	g.pulls = append(g.pulls, transfer{from, amount})
	return nil
}

func (g *fakeGateway) Push(ctx context.Context, to string, amount uint64) (string, error) {
	if g.onPush != nil {
		g.onPush()
	}
	if g.pushErr != nil {
		return "", g.pushErr
	}
	g.pushes = append(g.pushes, transfer{to, amount})
	return "txid", nil
}

type failPersister struct{ err error }

func (p failPersister) Commit(ledger.GlobalState, []*ledger.Holder, []ledger.Round) error {
	return p.err
}

func testTerms() config.Terms {
	return config.Terms{
		MinInvestment:          100,
		MaxInvestment:          5_000,
		HardCap:                10_000,
		FirstPayoutTime:        testStart,
		MinPeriodSpacing:       time.Hour,
		MaturityTime:           testStart.Add(100 * time.Hour),
		EmergencyUnlockEnabled: true,
		EmergencyPenaltyBps:    1000, // 10%
	}
}

type testEnv struct {
	sale      *Sale
	principal *fakeGateway
	payout    *fakeGateway
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		principal: &fakeGateway{},
		payout:    &fakeGateway{},
		now:       testStart,
	}
	s, err := NewSale(testTerms(), env.principal, env.payout, nil)
	require.NoError(t, err)
	s.Now = func() time.Time { return env.now }
	env.sale = s
	return env
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

var (
	operator = AccessContext{Actor: "operator@raise.example", Operator: true}
	alice    = AccessContext{Actor: "alice@example.com"}
	bob      = AccessContext{Actor: "bob@example.com"}
)

func TestFullLifecycleScenario(t *testing.T) {
	env := newTestEnv(t)
	s := env.sale
	ctx := context.Background()

	// A deposits 1000.
	require.NoError(t, s.RegisterInvestment(ctx, alice, 1000, 1000))
	assert.Equal(t, []transfer{{alice.Actor, 1000}}, env.principal.pulls)

	// Distribute 500; A owns the whole supply.
	require.NoError(t, s.DistributePayout(ctx, operator, 500))

	got, err := s.ClaimAvailablePayouts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)
	assert.Equal(t, []transfer{{alice.Actor, 500}}, env.payout.pushes)

	// B deposits after the round: no retroactive entitlement.
	require.NoError(t, s.RegisterInvestment(ctx, bob, 1000, 1000))
	bal, err := s.UserPayoutBalance(bob.Actor)
	require.NoError(t, err)
	assert.Zero(t, bal.TotalAvailable)

	// Distribute 500 across 2000 shares.
	env.advance(time.Hour)
	require.NoError(t, s.DistributePayout(ctx, operator, 500))

	balA, err := s.UserPayoutBalance(alice.Actor)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), balA.TotalAvailable)
	balB, err := s.UserPayoutBalance(bob.Actor)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), balB.TotalAvailable)

	// A exits early: 250 pending payout plus 900 of the 1000 principal.
	refund, err := s.EmergencyUnlock(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), refund)
	assert.Contains(t, env.payout.pushes, transfer{alice.Actor, 250})
	assert.Contains(t, env.principal.pushes, transfer{alice.Actor, 900})

	stateA, err := s.InvestorStateOf(alice.Actor)
	require.NoError(t, err)
	assert.True(t, stateA.EmergencyExited)
	assert.Zero(t, stateA.Shares)
	assert.Equal(t, uint64(1000), stateA.PrincipalDeposited, "principal stays queryable after exit")
	assert.Equal(t, uint64(750), stateA.ClaimedTotal)

	// B redeems at maturity: pending 250 plus the full 1000 principal.
	env.now = testTerms().MaturityTime
	principal, err := s.ClaimFinalTokens(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), principal)
	assert.Contains(t, env.payout.pushes, transfer{bob.Actor, 250})
	assert.Contains(t, env.principal.pushes, transfer{bob.Actor, 1000})

	stateB, err := s.InvestorStateOf(bob.Actor)
	require.NoError(t, err)
	assert.True(t, stateB.FinalRedeemed)
	assert.False(t, stateB.EmergencyExited)
	assert.Zero(t, s.Book.Global.TotalShares)
}

func TestRegisterInvestment_Admission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.sale.RegisterInvestment(ctx, AccessContext{}, 1000, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = env.sale.RegisterInvestment(ctx, alice, 50, 0)
	assert.ErrorIs(t, err, ErrBelowMinInvestment)

	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 4000, 0))
	err = env.sale.RegisterInvestment(ctx, alice, 2000, 0)
	assert.ErrorIs(t, err, ErrAboveMaxInvestment, "cumulative deposits exceed per-investor max")

	require.NoError(t, env.sale.RegisterInvestment(ctx, bob, 5000, 0))
	err = env.sale.RegisterInvestment(ctx, AccessContext{Actor: "carol@example.com"}, 2000, 0)
	assert.ErrorIs(t, err, ErrHardCapReached)
}

func TestRegisterInvestment_RecordsUSDValue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 420))
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 80))

	state, err := env.sale.InvestorStateOf(alice.Actor)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), state.USDValue)
	assert.Equal(t, uint64(2000), state.PrincipalDeposited)
}

func TestRegisterInvestment_PullFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.principal.pullErr = errors.New("deposit not found")

	err := env.sale.RegisterInvestment(context.Background(), alice, 1000, 0)
	require.Error(t, err)

	assert.Nil(t, env.sale.Book.Holder(alice.Actor), "first-deposit record must not survive a failed pull")
	assert.Zero(t, env.sale.Book.Global.TotalShares)
}

func TestRegisterInvestment_CommitFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.sale.Persist = failPersister{err: errors.New("disk full")}

	err := env.sale.RegisterInvestment(context.Background(), alice, 1000, 0)
	require.Error(t, err)
	assert.Zero(t, env.sale.Book.Global.TotalShares)
}

func TestDistributePayout_Admission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.sale.DistributePayout(ctx, alice, 100)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = env.sale.DistributePayout(ctx, operator, 100)
	assert.ErrorIs(t, err, ledger.ErrZeroTotalShares)

	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 100))

	// Second round inside the spacing window.
	err = env.sale.DistributePayout(ctx, operator, 100)
	assert.ErrorIs(t, err, ledger.ErrTooEarlyForDistribution)

	env.advance(time.Hour)
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 100))
}

func TestDistributePayout_PullFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))

	env.payout.pullErr = errors.New("funding missing")
	err := env.sale.DistributePayout(ctx, operator, 100)
	require.Error(t, err)

	assert.Zero(t, env.sale.Book.Global.PeriodIndex)
	assert.Empty(t, env.sale.Book.Rounds)
	assert.Zero(t, env.sale.Book.Global.TotalPayoutReceived)

	// The failed round must not poison later admission.
	env.payout.pullErr = nil
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 100))
}

func TestClaim_NothingToClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	// A live deposit with nothing accrued claims 0 without a transfer.
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	got, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.Empty(t, env.payout.pushes)
}

func TestClaim_PushFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 500))

	env.payout.pushErr = errors.New("broadcast rejected")
	_, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	require.Error(t, err)

	bal, err := env.sale.UserPayoutBalance(alice.Actor)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), bal.TotalAvailable, "entitlement survives a failed disbursement")
	assert.Zero(t, env.sale.Book.Global.TotalPayoutClaimed)

	env.payout.pushErr = nil
	got, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)
}

func TestEmergencyUnlock_Admission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sale.EmergencyUnlock(ctx, alice)
	assert.ErrorIs(t, err, ledger.ErrUnknownHolder)

	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	env.sale.Book.Global.EmergencyUnlockEnabled = false
	_, err = env.sale.EmergencyUnlock(ctx, alice)
	assert.ErrorIs(t, err, ErrEmergencyUnlockDisabled)
	env.sale.Book.Global.EmergencyUnlockEnabled = true

	_, err = env.sale.EmergencyUnlock(ctx, alice)
	require.NoError(t, err)

	// Terminal states are one-shot and mutually exclusive.
	_, err = env.sale.EmergencyUnlock(ctx, alice)
	assert.ErrorIs(t, err, ledger.ErrPositionClosed)

	env.now = testTerms().MaturityTime
	_, err = env.sale.ClaimFinalTokens(ctx, alice)
	assert.ErrorIs(t, err, ledger.ErrPositionClosed)

	err = env.sale.RegisterInvestment(ctx, alice, 1000, 0)
	assert.ErrorIs(t, err, ledger.ErrPositionClosed)
}

func TestEmergencyUnlock_PenaltyRounding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 10% of 1005 truncates to 100, refund 905.
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1005, 0))
	refund, err := env.sale.EmergencyUnlock(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(905), refund)
}

func TestEmergencyUnlock_PushFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 500))

	env.principal.pushErr = errors.New("escrow dry")
	_, err := env.sale.EmergencyUnlock(ctx, alice)
	require.Error(t, err)

	state, err := env.sale.InvestorStateOf(alice.Actor)
	require.NoError(t, err)
	assert.False(t, state.EmergencyExited)
	assert.Equal(t, uint64(1000), state.Shares)
	assert.Equal(t, uint64(1000), env.sale.Book.Global.TotalShares)
}

func TestClaimFinalTokens_NotMatured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))

	_, err := env.sale.ClaimFinalTokens(ctx, alice)
	assert.ErrorIs(t, err, ErrNotMatured)

	env.now = testTerms().MaturityTime
	principal, err := env.sale.ClaimFinalTokens(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), principal)
}

func TestCancelAndRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.RegisterInvestment(ctx, bob, 2000, 0))

	err := env.sale.CancelAndRefund(ctx, alice)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, env.sale.CancelAndRefund(ctx, operator))
	assert.ElementsMatch(t, []transfer{
		{alice.Actor, 1000},
		{bob.Actor, 2000},
	}, env.principal.pushes)
	assert.Zero(t, env.sale.Book.Global.TotalShares)

	err = env.sale.RegisterInvestment(ctx, AccessContext{Actor: "carol@example.com"}, 1000, 0)
	assert.ErrorIs(t, err, ErrSaleCancelled)

	err = env.sale.CancelAndRefund(ctx, operator)
	assert.ErrorIs(t, err, ErrSaleCancelled)
}

func TestCancelAndRefund_AfterDistribution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 100))

	err := env.sale.CancelAndRefund(ctx, operator)
	assert.ErrorIs(t, err, ErrAlreadyDistributed)
}

func TestCancelAndRefund_PartialPushFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.RegisterInvestment(ctx, bob, 2000, 0))

	env.principal.pushErr = errors.New("node down")
	err := env.sale.CancelAndRefund(ctx, operator)
	require.Error(t, err)

	assert.False(t, env.sale.Book.Global.Cancelled)
	assert.Equal(t, uint64(3000), env.sale.Book.Global.TotalShares)
	state, err := env.sale.InvestorStateOf(alice.Actor)
	require.NoError(t, err)
	assert.False(t, state.EmergencyExited)
}

func TestReentrancyGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	require.NoError(t, env.sale.DistributePayout(ctx, operator, 500))

	var reentryErr error
	env.payout.onPush = func() {
		_, reentryErr = env.sale.ClaimAvailablePayouts(ctx, alice)
	}

	got, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got)
	assert.ErrorIs(t, reentryErr, ErrOperationInProgress)
}

func TestCurrentPeriodInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.sale.CurrentPeriodInfo()
	require.NoError(t, err)
	assert.False(t, info.CanDistribute, "empty supply cannot receive a round")
	assert.Zero(t, info.PeriodIndex)

	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))
	info, err = env.sale.CurrentPeriodInfo()
	require.NoError(t, err)
	assert.True(t, info.CanDistribute)

	require.NoError(t, env.sale.DistributePayout(ctx, operator, 100))
	info, err = env.sale.CurrentPeriodInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.PeriodIndex)
	assert.False(t, info.CanDistribute)
	assert.Equal(t, testStart.Add(time.Hour), info.NextEligibleTime)
}

// Claim cost stays flat no matter how many rounds elapsed: after 10,000
// rounds a single claim disburses the exact lifetime total in one push.
func TestClaimAfterManyRounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.sale.RegisterInvestment(ctx, alice, 1000, 0))

	const rounds = 10_000
	var total uint64
	for i := 0; i < rounds; i++ {
		require.NoError(t, env.sale.DistributePayout(ctx, operator, 3))
		total += 3
		env.advance(time.Hour)
	}

	got, err := env.sale.ClaimAvailablePayouts(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, total, got)
	assert.Len(t, env.payout.pushes, 1)
}
