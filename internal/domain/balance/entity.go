package balance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a caller-supplied, possibly-stale balance hint attached to an
// order request. The engine trusts it only when seeding an account it has
// never touched.
type Snapshot struct {
	Symbol   string `json:"symbol"`
	Balance  int64  `json:"balance"`
	Decimals int32  `json:"decimals"`
}

// Amount converts the fixed-point raw balance into a decimal value.
func (s Snapshot) Amount() decimal.Decimal {
	return decimal.New(s.Balance, -s.Decimals)
}

// Entry is a durable balance row.
type Entry struct {
	UserID    string    `db:"user_id"`
	Symbol    string    `db:"symbol"`
	Balance   int64     `db:"balance"`
	Decimals  int32     `db:"decimals"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Amount converts the fixed-point raw balance into a decimal value.
func (e Entry) Amount() decimal.Decimal {
	return decimal.New(e.Balance, -e.Decimals)
}

// DecimalsFor returns the fixed-point precision used when persisting a
// symbol's balance.
func DecimalsFor(symbol string) int32 {
	switch strings.ToUpper(symbol) {
	case "USDC", "USDT":
		return 2
	case "BTC":
		return 8
	default:
		return 8
	}
}

// ToRaw converts a decimal amount to fixed-point base units, rounding half up.
func ToRaw(amount decimal.Decimal, decimals int32) int64 {
	return amount.Shift(decimals).Round(0).IntPart()
}
