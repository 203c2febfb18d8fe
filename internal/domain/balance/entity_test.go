package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotAmount(t *testing.T) {
	s := Snapshot{Symbol: "USDC", Balance: 123456, Decimals: 2}
	assert.True(t, s.Amount().Equal(decimal.RequireFromString("1234.56")))

	neg := Snapshot{Symbol: "USDC", Balance: -500, Decimals: 2}
	assert.True(t, neg.Amount().Equal(decimal.RequireFromString("-5")))
}

func TestDecimalsFor(t *testing.T) {
	assert.Equal(t, int32(2), DecimalsFor("USDC"))
	assert.Equal(t, int32(2), DecimalsFor("usdt"))
	assert.Equal(t, int32(8), DecimalsFor("BTC"))
	assert.Equal(t, int32(8), DecimalsFor("SOL"))
}

func TestToRaw(t *testing.T) {
	assert.Equal(t, int64(123456), ToRaw(decimal.RequireFromString("1234.56"), 2))
	assert.Equal(t, int64(123), ToRaw(decimal.RequireFromString("1.226"), 2))
	assert.Equal(t, int64(-123), ToRaw(decimal.RequireFromString("-1.226"), 2))
	assert.Equal(t, int64(0), ToRaw(decimal.Zero, 8))
}
