package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialMargin(t *testing.T) {
	p := &Position{
		Qty:        decimal.NewFromInt(1),
		Leverage:   decimal.NewFromInt(10),
		EntryPrice: decimal.NewFromInt(100000),
	}

	assert.True(t, p.InitialMargin().Equal(decimal.NewFromInt(10000)))
}

func TestPnL(t *testing.T) {
	long := &Position{
		Side:       SideLong,
		Qty:        decimal.NewFromInt(2),
		Leverage:   decimal.NewFromInt(5),
		EntryPrice: decimal.NewFromInt(100000),
	}
	assert.True(t, long.PnL(decimal.NewFromInt(101000)).Equal(decimal.NewFromInt(2000)))
	assert.True(t, long.PnL(decimal.NewFromInt(99000)).Equal(decimal.NewFromInt(-2000)))

	short := &Position{
		Side:       SideShort,
		Qty:        decimal.NewFromInt(2),
		Leverage:   decimal.NewFromInt(5),
		EntryPrice: decimal.NewFromInt(100000),
	}
	assert.True(t, short.PnL(decimal.NewFromInt(101000)).Equal(decimal.NewFromInt(-2000)))
	assert.True(t, short.PnL(decimal.NewFromInt(99000)).Equal(decimal.NewFromInt(2000)))
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		input string
		want  Side
		ok    bool
	}{
		{"buy", SideLong, true},
		{"long", SideLong, true},
		{"sell", SideShort, true},
		{"short", SideShort, true},
		{"BUY", "", false},
		{"hold", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSide(tt.input)
		require.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestCloseReasonValid(t *testing.T) {
	for _, r := range []CloseReason{ReasonTakeProfit, ReasonStopLoss, ReasonManual, ReasonLiquidation, ReasonMargin} {
		assert.True(t, r.Valid(), "reason %s", r)
	}
	assert.False(t, CloseReason("Margin").Valid(), "wire form is lowercase")
	assert.False(t, CloseReason("").Valid())
}
