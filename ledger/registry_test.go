package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint_CreatesHolderAtCurrentRate(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("alice", 500))

	h := b.Holder("alice")
	require.NotNil(t, h)
	assert.Equal(t, uint64(500), h.Shares)
	assert.Equal(t, uint64(500), h.PrincipalDeposited)
	assert.Equal(t, uint64(500), b.Global.TotalShares)
	assert.Zero(t, h.Checkpoint.Cmp(b.Global.CumulativeRate))
}

func TestMint_SettlesBeforeAddingShares(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("alice", 100))
	require.NoError(t, b.Distribute(100, testStart))

	// The second deposit must not dilute the entitlement already earned.
	require.NoError(t, b.Mint("alice", 900))
	assert.Equal(t, uint64(100), b.Holder("alice").Claimable)
	assert.Equal(t, uint64(1000), b.Holder("alice").Shares)
}

func TestMint_Errors(t *testing.T) {
	b := openBook(t)
	assert.ErrorIs(t, b.Mint("alice", 0), ErrInvalidAmount)

	require.NoError(t, b.Mint("bob", 10))
	b.Holder("bob").EmergencyExited = true
	assert.ErrorIs(t, b.Mint("bob", 10), ErrPositionClosed)
}

func TestBurn(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("alice", 1000))
	require.NoError(t, b.Burn("alice", 400))

	assert.Equal(t, uint64(600), b.Holder("alice").Shares)
	assert.Equal(t, uint64(600), b.Global.TotalShares)
	// Principal is untouched by burns.
	assert.Equal(t, uint64(1000), b.Holder("alice").PrincipalDeposited)
}

func TestBurn_SettlesFirst(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("alice", 1000))
	require.NoError(t, b.Distribute(500, testStart))

	require.NoError(t, b.Burn("alice", 1000))
	assert.Equal(t, uint64(500), b.Holder("alice").Claimable)
}

func TestBurn_Errors(t *testing.T) {
	b := openBook(t)
	assert.ErrorIs(t, b.Burn("alice", 1), ErrUnknownHolder)

	require.NoError(t, b.Mint("alice", 10))
	assert.ErrorIs(t, b.Burn("alice", 0), ErrInvalidAmount)
	assert.ErrorIs(t, b.Burn("alice", 11), ErrInsufficientShares)
}

func TestTransfer_NotSupported(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("alice", 10))
	assert.ErrorIs(t, b.Transfer("alice", "bob", 5), ErrTransferNotSupported)
}

func TestTotalSharesMatchesHolderSum(t *testing.T) {
	b := openBook(t)
	require.NoError(t, b.Mint("a", 100))
	require.NoError(t, b.Mint("b", 250))
	require.NoError(t, b.Mint("c", 50))
	require.NoError(t, b.Burn("b", 200))

	var sum uint64
	for _, h := range b.Holders {
		sum += h.Shares
	}
	assert.Equal(t, sum, b.Global.TotalShares)
}
