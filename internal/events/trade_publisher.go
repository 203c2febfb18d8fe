package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/adapters/kafka"
	"hermes/internal/domain/position"
	"hermes/internal/engine"
	"hermes/pkg/logger"
)

// Compile-time check
var _ engine.EventSink = (*TradePublisher)(nil)

// PositionOpenedEvent is published when a position is admitted.
type PositionOpenedEvent struct {
	Type       string    `json:"type"`
	PositionID string    `json:"positionId"`
	UserID     string    `json:"userId"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        string    `json:"qty"`
	Leverage   string    `json:"leverage"`
	EntryPrice string    `json:"entryPrice"`
	OpenedAt   time.Time `json:"openedAt"`
}

// PositionClosedEvent is published when a position leaves the book.
type PositionClosedEvent struct {
	Type         string    `json:"type"`
	PositionID   string    `json:"positionId"`
	UserID       string    `json:"userId"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Qty          string    `json:"qty"`
	EntryPrice   string    `json:"entryPrice"`
	ClosingPrice string    `json:"closingPrice"`
	PnL          string    `json:"pnl"`
	Reason       string    `json:"reason"`
	ClosedAt     time.Time `json:"closedAt"`
}

// TradePublisher publishes position lifecycle events to Kafka for the
// analytics pipeline.
type TradePublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewTradePublisher creates a new trade event publisher
func NewTradePublisher(producer *kafka.Producer) *TradePublisher {
	return &TradePublisher{
		producer: producer,
		log:      logger.Get().With("component", "trade_publisher"),
	}
}

// PositionOpened publishes a position-opened event
func (p *TradePublisher) PositionOpened(ctx context.Context, pos *position.Position) error {
	event := PositionOpenedEvent{
		Type:       TypePositionOpened,
		PositionID: pos.ID,
		UserID:     pos.UserID,
		Symbol:     pos.Symbol,
		Side:       pos.Side.String(),
		Qty:        pos.Qty.String(),
		Leverage:   pos.Leverage.String(),
		EntryPrice: pos.EntryPrice.String(),
		OpenedAt:   pos.CreatedAt,
	}
	return p.producer.Publish(ctx, TopicTradingEvents, pos.ID, event)
}

// PositionClosed publishes a position-closed event
func (p *TradePublisher) PositionClosed(ctx context.Context, pos *position.Position, closingPrice, pnl decimal.Decimal, reason position.CloseReason) error {
	event := PositionClosedEvent{
		Type:         TypePositionClosed,
		PositionID:   pos.ID,
		UserID:       pos.UserID,
		Symbol:       pos.Symbol,
		Side:         pos.Side.String(),
		Qty:          pos.Qty.String(),
		EntryPrice:   pos.EntryPrice.String(),
		ClosingPrice: closingPrice.String(),
		PnL:          pnl.String(),
		Reason:       reason.String(),
		ClosedAt:     time.Now().UTC(),
	}
	return p.producer.Publish(ctx, TopicTradingEvents, pos.ID, event)
}
