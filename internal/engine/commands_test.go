package engine

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/pkg/errors"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"kind":"price-update","id":"e-1","payload":{"s":"BTC","b":"1","a":"2"}}`))
	require.NoError(t, err)
	assert.Equal(t, KindPriceUpdate, env.Kind)
	assert.Equal(t, "e-1", env.ID)
	assert.NotEmpty(t, env.Payload)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `price-update`},
		{"missing kind", `{"id":"e-1"}`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformedCommand))
		})
	}
}

func TestNumber_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		valid bool
		want  string
	}{
		{"integer", `42`, true, "42"},
		{"float", `0.5`, true, "0.5"},
		{"negative", `-3`, true, "-3"},
		{"numeric string", `"12.25"`, true, "12.25"},
		{"null", `null`, false, ""},
		{"garbage string", `"lots"`, false, ""},
		{"empty string", `""`, false, ""},
		{"bool", `true`, false, ""},
		{"object", `{}`, false, ""},
		{"array", `[1]`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.json), &n))
			assert.Equal(t, tt.valid, n.Valid)
			if tt.valid {
				assert.True(t, n.Decimal.Equal(decimal.RequireFromString(tt.want)))
			}
		})
	}
}

func TestNumber_MissingFieldIsUnset(t *testing.T) {
	var req CreateOrder
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x"}`), &req))
	assert.False(t, req.Qty.Valid)
	assert.False(t, req.Leverage.Valid)
}

func TestNumber_Or(t *testing.T) {
	var unset Number
	assert.True(t, unset.Or(decimal.NewFromInt(1)).Equal(decimal.NewFromInt(1)))

	var n Number
	require.NoError(t, json.Unmarshal([]byte(`7`), &n))
	assert.True(t, n.Or(decimal.NewFromInt(1)).Equal(decimal.NewFromInt(7)))
}

func TestNumber_Positive(t *testing.T) {
	cases := map[string]bool{
		`5`:      true,
		`"0.01"`: true,
		`0`:      false,
		`-2`:     false,
		`null`:   false,
		`"junk"`: false,
	}

	for input, want := range cases {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(input), &n))
		assert.Equal(t, want, n.Positive(), "input %s", input)
	}
}

func TestPriceUpdate_WireFormat(t *testing.T) {
	var tick PriceUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"s":"BTC_USDC","b":"100.5","a":101}`), &tick))

	assert.Equal(t, "BTC_USDC", tick.Symbol)
	assert.True(t, tick.Bid.Decimal.Equal(decimal.RequireFromString("100.5")))
	assert.True(t, tick.Ask.Decimal.Equal(decimal.NewFromInt(101)))
}
