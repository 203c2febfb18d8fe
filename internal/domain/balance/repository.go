package balance

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for durable balance storage. The engine
// upserts rows when margin is debited or credited; deposits are written by
// the request layer.
type Repository interface {
	Upsert(ctx context.Context, userID, symbol string, amount decimal.Decimal, decimals int32) error
	Get(ctx context.Context, userID, symbol string) (*Entry, error)
	GetByUser(ctx context.Context, userID string) ([]*Entry, error)
}
