package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/position"
	"hermes/pkg/errors"
)

// Prices, pnl and thresholds are persisted as fixed-point integers alongside
// their scale, so a row stays exact regardless of the symbol traded.
const priceDecimals int32 = 8

// Compile-time check
var _ position.Repository = (*PositionRepository)(nil)

// PositionRepository implements position.Repository using sqlx
type PositionRepository struct {
	db DBTX
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db DBTX) *PositionRepository {
	return &PositionRepository{db: db}
}

// positionRow is the storage shape of a position
type positionRow struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	Symbol string `db:"symbol"`
	Side   string `db:"side"`

	Qty           int64 `db:"qty"`
	QtyDecimals   int32 `db:"qty_decimals"`
	EntryPrice    int64 `db:"entry_price"`
	PriceDecimals int32 `db:"price_decimals"`

	Leverage decimal.Decimal `db:"leverage"`

	TakeProfit sql.NullInt64 `db:"take_profit"`
	StopLoss   sql.NullInt64 `db:"stop_loss"`

	CurrentPrice sql.NullInt64 `db:"current_price"`
	PnL          sql.NullInt64 `db:"pnl"`

	Status      string         `db:"status"`
	CloseReason sql.NullString `db:"close_reason"`

	CreatedAt time.Time    `db:"created_at"`
	ClosedAt  sql.NullTime `db:"closed_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func toRow(p *position.Position) positionRow {
	row := positionRow{
		ID:            p.ID,
		UserID:        p.UserID,
		Symbol:        p.Symbol,
		Side:          p.Side.String(),
		Qty:           p.Qty.Shift(priceDecimals).Round(0).IntPart(),
		QtyDecimals:   priceDecimals,
		EntryPrice:    p.EntryPrice.Shift(priceDecimals).Round(0).IntPart(),
		PriceDecimals: priceDecimals,
		Leverage:      p.Leverage,
		Status:        p.Status.String(),
		CreatedAt:     p.CreatedAt,
	}
	if p.TakeProfit.Valid {
		row.TakeProfit = sql.NullInt64{Int64: p.TakeProfit.Decimal.Shift(priceDecimals).Round(0).IntPart(), Valid: true}
	}
	if p.StopLoss.Valid {
		row.StopLoss = sql.NullInt64{Int64: p.StopLoss.Decimal.Shift(priceDecimals).Round(0).IntPart(), Valid: true}
	}
	return row
}

func (r positionRow) toDomain() (*position.Position, error) {
	side, ok := position.ParseSide(r.Side)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInternal, "position %s has unknown side %q", r.ID, r.Side)
	}

	p := &position.Position{
		ID:         r.ID,
		UserID:     r.UserID,
		Symbol:     r.Symbol,
		Side:       side,
		Qty:        decimal.New(r.Qty, -r.QtyDecimals),
		Leverage:   r.Leverage,
		EntryPrice: decimal.New(r.EntryPrice, -r.PriceDecimals),
		Status:     position.Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
	if r.TakeProfit.Valid {
		p.TakeProfit = decimal.NewNullDecimal(decimal.New(r.TakeProfit.Int64, -r.PriceDecimals))
	}
	if r.StopLoss.Valid {
		p.StopLoss = decimal.NewNullDecimal(decimal.New(r.StopLoss.Int64, -r.PriceDecimals))
	}
	return p, nil
}

// Create inserts a new open position
func (r *PositionRepository) Create(ctx context.Context, p *position.Position) error {
	row := toRow(p)

	query := `
		INSERT INTO positions (
			id, user_id, symbol, side,
			qty, qty_decimals, entry_price, price_decimals,
			leverage, take_profit, stop_loss,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW()
		)`

	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.UserID, row.Symbol, row.Side,
		row.Qty, row.QtyDecimals, row.EntryPrice, row.PriceDecimals,
		row.Leverage, row.TakeProfit, row.StopLoss,
		row.Status, row.CreatedAt,
	)

	return err
}

// GetByID retrieves a position by ID
func (r *PositionRepository) GetByID(ctx context.Context, id string) (*position.Position, error) {
	var row positionRow

	query := `SELECT * FROM positions WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrPositionNotFound, "position %s", id)
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain()
}

// GetOpen retrieves every open position, in admission order
func (r *PositionRepository) GetOpen(ctx context.Context) ([]*position.Position, error) {
	var rows []positionRow

	query := `
		SELECT * FROM positions
		WHERE status = 'open'
		ORDER BY created_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	positions := make([]*position.Position, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	return positions, nil
}

// UpdatePnL mirrors the in-memory mark of an open position
func (r *PositionRepository) UpdatePnL(ctx context.Context, id string, currentPrice, pnl decimal.Decimal) error {
	query := `
		UPDATE positions SET
			current_price = $2,
			pnl = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id,
		currentPrice.Shift(priceDecimals).Round(0).IntPart(),
		pnl.Shift(priceDecimals).Round(0).IntPart(),
	)
	return err
}

// Close marks a position closed with its final price, pnl and reason.
// The open-status guard keeps a replayed close from overwriting the first.
func (r *PositionRepository) Close(ctx context.Context, id string, closingPrice, pnl decimal.Decimal, reason position.CloseReason, closedAt time.Time) error {
	query := `
		UPDATE positions SET
			current_price = $2,
			pnl = $3,
			status = 'closed',
			close_reason = $4,
			closed_at = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = 'open'`

	_, err := r.db.ExecContext(ctx, query, id,
		closingPrice.Shift(priceDecimals).Round(0).IntPart(),
		pnl.Shift(priceDecimals).Round(0).IntPart(),
		reason.String(), closedAt,
	)
	return err
}
