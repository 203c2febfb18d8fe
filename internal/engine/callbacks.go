package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/position"
)

// Status is the outcome of a processed order command, published on the
// callback channel and consumed by the waiting request layer.
type Status string

const (
	StatusCreated             Status = "created"
	StatusClosed              Status = "closed"
	StatusInvalidOrder        Status = "invalid_order"
	StatusNoPrice             Status = "no_price"
	StatusInsufficientBalance Status = "insufficient_balance"
)

// Callback correlates an outcome back to a command id. Exactly one callback
// is published per processed order command; price ticks publish none of
// their own but may produce closure callbacks for positions they liquidate.
type Callback struct {
	ID     string
	Status Status
	Reason position.CloseReason
	PnL    *decimal.Decimal
}

// CallbackSink publishes callbacks to the reply channel. Implementations
// must not block the caller beyond ordinary I/O; failures are logged by the
// implementation, never surfaced to the engine loop.
type CallbackSink interface {
	Publish(ctx context.Context, cb Callback) error
}

// EventSink receives lifecycle events for downstream analytics.
type EventSink interface {
	PositionOpened(ctx context.Context, p *position.Position) error
	PositionClosed(ctx context.Context, p *position.Position, closingPrice, pnl decimal.Decimal, reason position.CloseReason) error
}

// Tick is one admitted price update.
type Tick struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Time   time.Time
}

// TickRecorder archives admitted ticks. Record must never block.
type TickRecorder interface {
	Record(t Tick)
}

// NopCallbackSink discards callbacks; used when wiring partial engines.
type NopCallbackSink struct{}

func (NopCallbackSink) Publish(context.Context, Callback) error { return nil }

// NopEventSink discards lifecycle events.
type NopEventSink struct{}

func (NopEventSink) PositionOpened(context.Context, *position.Position) error { return nil }
func (NopEventSink) PositionClosed(context.Context, *position.Position, decimal.Decimal, decimal.Decimal, position.CloseReason) error {
	return nil
}

// NopTickRecorder discards ticks.
type NopTickRecorder struct{}

func (NopTickRecorder) Record(Tick) {}
