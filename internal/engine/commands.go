package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/balance"
	"hermes/pkg/errors"
)

// Kind classifies command-stream entries.
type Kind string

const (
	KindPriceUpdate   Kind = "price-update"
	KindCreateOrder   Kind = "create-order"
	KindCloseOrder    Kind = "close-order"
	KindBalanceUpdate Kind = "balance-update"
)

// Envelope is the decoded form of one command-stream entry.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEnvelope parses the raw "data" field of a stream entry.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, errors.Wrap(errors.ErrMalformedCommand, err.Error())
	}
	if env.Kind == "" {
		return Envelope{}, errors.Wrap(errors.ErrMalformedCommand, "missing kind")
	}
	return env, nil
}

// Number tolerates the request layer's loose typing: JSON numbers, numeric
// strings, null and garbage all decode without error; anything unusable is
// simply absent.
type Number struct {
	decimal.NullDecimal
}

// UnmarshalJSON never fails; unparseable input leaves the value unset.
func (n *Number) UnmarshalJSON(data []byte) error {
	n.Valid = false
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	raw := data
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		raw = []byte(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil
	}
	n.Decimal = d
	n.Valid = true
	return nil
}

// Or returns the decoded value or the given fallback when unset.
func (n Number) Or(fallback decimal.Decimal) decimal.Decimal {
	if n.Valid {
		return n.Decimal
	}
	return fallback
}

// Positive reports whether the value is set and strictly greater than zero.
func (n Number) Positive() bool {
	return n.Valid && n.Decimal.IsPositive()
}

// PriceUpdate carries one bid/ask tick. Field names follow the exchange
// bookTicker wire format.
type PriceUpdate struct {
	Symbol string `json:"s"`
	Bid    Number `json:"b"`
	Ask    Number `json:"a"`
}

// CreateOrder is the order-open request payload.
type CreateOrder struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Asset      string `json:"asset"`
	Side       string `json:"side"`
	Qty        Number `json:"qty"`
	Leverage   Number `json:"leverage"`
	TakeProfit Number `json:"takeProfit"`
	StopLoss   Number `json:"stopLoss"`

	// Best-effort balance hint read from durable storage at submission
	// time; used only to seed accounts the engine has never touched.
	BalanceSnapshot []balance.Snapshot `json:"balanceSnapshot"`

	EnqueuedAt int64 `json:"enqueuedAt"`
}

// CloseOrder is the manual close request payload. The request layer has
// already verified ownership; the engine trusts it.
type CloseOrder struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	CloseReason string `json:"closeReason"`
	PnL         Number `json:"pnl"`
	ClosedAt    int64  `json:"closedAt"`
}

// BalanceUpdate mirrors a deposit applied by the request layer so the
// in-memory ledger tracks the durable row.
type BalanceUpdate struct {
	UserID     string `json:"userId"`
	Symbol     string `json:"symbol"`
	NewBalance int64  `json:"newBalance"`
	Decimals   int32  `json:"decimals"`
}
