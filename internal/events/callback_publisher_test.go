package events

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "hermes/internal/adapters/redis"
	"hermes/internal/domain/position"
	"hermes/internal/engine"
	"hermes/internal/testsupport"
)

func TestCallbackPublisher_WireFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbConfigs := testsupport.LoadDatabaseConfigsFromEnv(t)
	raw := testsupport.NewRedisClient(t, dbConfigs.Redis)

	client, err := redisclient.NewClient(dbConfigs.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	publisher := NewCallbackPublisher(client, "test-callbacks")
	ctx := context.Background()

	pnl := decimal.RequireFromString("-9600")
	require.NoError(t, publisher.Publish(ctx, engine.Callback{
		ID:     "ord-1",
		Status: engine.StatusClosed,
		Reason: position.ReasonMargin,
		PnL:    &pnl,
	}))
	require.NoError(t, publisher.Publish(ctx, engine.Callback{
		ID:     "ord-2",
		Status: engine.StatusInsufficientBalance,
	}))

	entries, err := raw.XRange(ctx, "test-callbacks", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	closed := entries[0].Values
	assert.Equal(t, "ord-1", closed["id"])
	assert.Equal(t, "closed", closed["status"])
	assert.Equal(t, "margin", closed["reason"])
	assert.Equal(t, "-9600", closed["pnl"])

	rejected := entries[1].Values
	assert.Equal(t, "ord-2", rejected["id"])
	assert.Equal(t, "insufficient_balance", rejected["status"])
	assert.NotContains(t, rejected, "reason")
	assert.NotContains(t, rejected, "pnl")
}
