package position

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents an open leveraged exposure against the house.
// EntryPrice, Qty and Leverage are fixed for the life of the position.
type Position struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	Symbol string `db:"symbol"`
	Side   Side   `db:"side"`

	Qty        decimal.Decimal `db:"qty"`
	Leverage   decimal.Decimal `db:"leverage"`
	EntryPrice decimal.Decimal `db:"entry_price"`

	// TakeProfit and StopLoss are unset unless explicitly requested with a
	// positive threshold.
	TakeProfit decimal.NullDecimal `db:"take_profit"`
	StopLoss   decimal.NullDecimal `db:"stop_loss"`

	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// InitialMargin returns the collateral reserved at admission:
// entry price x quantity / leverage.
func (p *Position) InitialMargin() decimal.Decimal {
	return p.EntryPrice.Mul(p.Qty).Div(p.Leverage)
}

// PnL returns the unrealized profit or loss at the given price.
func (p *Position) PnL(price decimal.Decimal) decimal.Decimal {
	if p.Side == SideLong {
		return price.Sub(p.EntryPrice).Mul(p.Qty)
	}
	return p.EntryPrice.Sub(price).Mul(p.Qty)
}

// Side defines long or short
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide normalizes the wire-side representation; the request layer sends
// buy/sell, older clients send long/short.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "long", "buy":
		return SideLong, true
	case "short", "sell":
		return SideShort, true
	}
	return "", false
}

// Valid checks if position side is valid
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// String returns string representation
func (s Side) String() string {
	return string(s)
}

// Status defines position lifecycle status
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Valid checks if position status is valid
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// String returns string representation
func (s Status) String() string {
	return string(s)
}

// CloseReason records why a position left the book
type CloseReason string

const (
	ReasonTakeProfit  CloseReason = "TakeProfit"
	ReasonStopLoss    CloseReason = "StopLoss"
	ReasonManual      CloseReason = "Manual"
	ReasonLiquidation CloseReason = "Liquidation"

	// ReasonMargin is the margin-exhaustion liquidation reason. The lowercase
	// form is part of the wire contract with the callback consumers.
	ReasonMargin CloseReason = "margin"
)

// Valid checks if the close reason is one of the known values
func (r CloseReason) Valid() bool {
	switch r {
	case ReasonTakeProfit, ReasonStopLoss, ReasonManual, ReasonLiquidation, ReasonMargin:
		return true
	}
	return false
}

// String returns string representation
func (r CloseReason) String() string {
	return string(r)
}
