package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"hermes/internal/domain/balance"
	"hermes/pkg/errors"
)

// Compile-time check
var _ balance.Repository = (*BalanceRepository)(nil)

// BalanceRepository implements balance.Repository using sqlx
type BalanceRepository struct {
	db DBTX
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db DBTX) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Upsert writes the current balance of one account symbol. The stored value
// is fixed-point: amount shifted by decimals, rounded half up.
func (r *BalanceRepository) Upsert(ctx context.Context, userID, symbol string, amount decimal.Decimal, decimals int32) error {
	query := `
		INSERT INTO balances (user_id, symbol, balance, decimals, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, symbol) DO UPDATE SET
			balance = EXCLUDED.balance,
			decimals = EXCLUDED.decimals,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, userID, symbol, balance.ToRaw(amount, decimals), decimals)
	return err
}

// Get retrieves one account balance
func (r *BalanceRepository) Get(ctx context.Context, userID, symbol string) (*balance.Entry, error) {
	var entry balance.Entry

	query := `SELECT * FROM balances WHERE user_id = $1 AND symbol = $2`

	err := r.db.GetContext(ctx, &entry, query, userID, symbol)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "balance %s/%s", userID, symbol)
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetByUser retrieves all balances for a user
func (r *BalanceRepository) GetByUser(ctx context.Context, userID string) ([]*balance.Entry, error) {
	var entries []*balance.Entry

	query := `
		SELECT * FROM balances
		WHERE user_id = $1
		ORDER BY symbol ASC`

	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, err
	}

	return entries, nil
}
