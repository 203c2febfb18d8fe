package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/testsupport"
	"hermes/pkg/errors"
)

func TestBalanceRepository_Upsert(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewBalanceRepository(testDB.Tx())
	ctx := context.Background()

	t.Run("insert then read", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, "user-1", "USDC", decimal.RequireFromString("1234.56"), 2))

		entry, err := repo.Get(ctx, "user-1", "USDC")
		require.NoError(t, err)
		assert.Equal(t, int64(123456), entry.Balance)
		assert.Equal(t, int32(2), entry.Decimals)
		assert.True(t, entry.Amount().Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("second upsert overwrites", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, "user-1", "USDC", decimal.NewFromInt(400), 2))

		entry, err := repo.Get(ctx, "user-1", "USDC")
		require.NoError(t, err)
		assert.Equal(t, int64(40000), entry.Balance)
	})

	t.Run("rounds sub-unit remainders", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, "user-1", "BTC", decimal.RequireFromString("0.123456789"), 8))

		entry, err := repo.Get(ctx, "user-1", "BTC")
		require.NoError(t, err)
		assert.Equal(t, int64(12345679), entry.Balance)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "user-2", "USDC")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

func TestBalanceRepository_GetByUser(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewBalanceRepository(testDB.Tx())
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "user-1", "USDC", decimal.NewFromInt(100), 2))
	require.NoError(t, repo.Upsert(ctx, "user-1", "BTC", decimal.NewFromInt(1), 8))
	require.NoError(t, repo.Upsert(ctx, "user-2", "USDC", decimal.NewFromInt(5), 2))

	entries, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "BTC", entries[0].Symbol)
	assert.Equal(t, "USDC", entries[1].Symbol)
}
