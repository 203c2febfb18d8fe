package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/balance"
)

func TestLedger_SeedsFromSnapshotOnFirstTouch(t *testing.T) {
	l := NewLedger(newMemBalanceRepo(), time.Second)

	snapshot := []balance.Snapshot{{Symbol: "USDC", Balance: 500000, Decimals: 2}}

	got := l.Get("user-1", "USDC", snapshot)
	assert.True(t, got.Equal(decimal.NewFromInt(5000)))

	// Later, larger snapshot is ignored: the cached value is authoritative.
	stale := []balance.Snapshot{{Symbol: "USDC", Balance: 900000, Decimals: 2}}
	got = l.Get("user-1", "USDC", stale)
	assert.True(t, got.Equal(decimal.NewFromInt(5000)))
}

func TestLedger_UnknownAccountReadsZero(t *testing.T) {
	l := NewLedger(newMemBalanceRepo(), time.Second)

	assert.True(t, l.Get("user-1", "USDC", nil).IsZero())
	assert.True(t, l.Get("user-1", "USDC", []balance.Snapshot{{Symbol: "BTC", Balance: 1, Decimals: 8}}).IsZero())
}

func TestLedger_SetMirrorsToRepository(t *testing.T) {
	repo := newMemBalanceRepo()
	l := NewLedger(repo, time.Second)

	l.Set(context.Background(), "user-1", "USDC", decimal.NewFromInt(1234))

	assert.True(t, l.Get("user-1", "USDC", nil).Equal(decimal.NewFromInt(1234)))

	require.Eventually(t, func() bool {
		amount, ok := repo.amount("user-1", "USDC")
		return ok && amount.Equal(decimal.NewFromInt(1234))
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLedger_SetCachedSkipsRepository(t *testing.T) {
	repo := newMemBalanceRepo()
	l := NewLedger(repo, time.Second)

	l.SetCached("user-1", "USDC", decimal.NewFromInt(999))

	assert.True(t, l.Get("user-1", "USDC", nil).Equal(decimal.NewFromInt(999)))

	time.Sleep(50 * time.Millisecond)
	_, ok := repo.amount("user-1", "USDC")
	assert.False(t, ok, "durable row must not be written")
}

func TestLedger_ResetForcesReseed(t *testing.T) {
	l := NewLedger(newMemBalanceRepo(), time.Second)

	l.SetCached("user-1", "USDC", decimal.NewFromInt(100))
	l.Reset()

	snapshot := []balance.Snapshot{{Symbol: "USDC", Balance: 700, Decimals: 2}}
	assert.True(t, l.Get("user-1", "USDC", snapshot).Equal(decimal.RequireFromString("7")))
}

func TestLedger_SymbolsAreCanonical(t *testing.T) {
	l := NewLedger(newMemBalanceRepo(), time.Second)

	l.SetCached("user-1", "usdc", decimal.NewFromInt(10))
	assert.True(t, l.Get("user-1", "USDC", nil).Equal(decimal.NewFromInt(10)))
}
