package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/domain/position"
	"hermes/internal/testsupport"
	"hermes/pkg/errors"
)

func testPosition(id string) *position.Position {
	return &position.Position{
		ID:         id,
		UserID:     "user-1",
		Symbol:     "BTC",
		Side:       position.SideLong,
		Qty:        decimal.RequireFromString("0.5"),
		Leverage:   decimal.NewFromInt(10),
		EntryPrice: decimal.RequireFromString("100000.25"),
		TakeProfit: decimal.NewNullDecimal(decimal.NewFromInt(110000)),
		Status:     position.StatusOpen,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPositionRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewPositionRepository(testDB.Tx())
	ctx := context.Background()

	t.Run("round trips a position", func(t *testing.T) {
		p := testPosition("pos-rt")
		require.NoError(t, repo.Create(ctx, p))

		got, err := repo.GetByID(ctx, "pos-rt")
		require.NoError(t, err)

		assert.Equal(t, p.UserID, got.UserID)
		assert.Equal(t, p.Side, got.Side)
		assert.True(t, got.Qty.Equal(p.Qty))
		assert.True(t, got.Leverage.Equal(p.Leverage))
		assert.True(t, got.EntryPrice.Equal(p.EntryPrice))
		require.True(t, got.TakeProfit.Valid)
		assert.True(t, got.TakeProfit.Decimal.Equal(p.TakeProfit.Decimal))
		assert.False(t, got.StopLoss.Valid)
		assert.Equal(t, position.StatusOpen, got.Status)
	})

	t.Run("missing id maps to not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrPositionNotFound))
	})
}

func TestPositionRepository_GetOpen(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewPositionRepository(testDB.Tx())
	ctx := context.Background()

	first := testPosition("pos-a")
	second := testPosition("pos-b")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, repo.Close(ctx, "pos-b",
		decimal.NewFromInt(99000), decimal.NewFromInt(-500),
		position.ReasonManual, time.Now().UTC()))

	open, err := repo.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "pos-a", open[0].ID)
}

func TestPositionRepository_CloseIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewPositionRepository(testDB.Tx())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testPosition("pos-c")))

	closedAt := time.Now().UTC()
	require.NoError(t, repo.Close(ctx, "pos-c",
		decimal.NewFromInt(90400), decimal.NewFromInt(-9600),
		position.ReasonMargin, closedAt))

	// Replayed close with different numbers must not overwrite the first.
	require.NoError(t, repo.Close(ctx, "pos-c",
		decimal.NewFromInt(1), decimal.NewFromInt(1),
		position.ReasonManual, closedAt.Add(time.Hour)))

	var reason string
	require.NoError(t, testDB.Tx().GetContext(ctx, &reason,
		`SELECT close_reason FROM positions WHERE id = $1`, "pos-c"))
	assert.Equal(t, "margin", reason)
}

func TestPositionRepository_UpdatePnL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewPositionRepository(testDB.Tx())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testPosition("pos-d")))
	require.NoError(t, repo.UpdatePnL(ctx, "pos-d",
		decimal.NewFromInt(99000), decimal.RequireFromString("-500.125")))

	var pnl int64
	require.NoError(t, testDB.Tx().GetContext(ctx, &pnl,
		`SELECT pnl FROM positions WHERE id = $1`, "pos-d"))
	assert.Equal(t, int64(-50012500000), pnl)
}
