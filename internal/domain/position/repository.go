package position

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for durable position storage.
// The engine is the only writer of status, pnl and closing price.
type Repository interface {
	Create(ctx context.Context, position *Position) error
	GetByID(ctx context.Context, id string) (*Position, error)
	GetOpen(ctx context.Context) ([]*Position, error)
	UpdatePnL(ctx context.Context, id string, currentPrice, pnl decimal.Decimal) error
	Close(ctx context.Context, id string, closingPrice, pnl decimal.Decimal, reason CloseReason, closedAt time.Time) error
}
