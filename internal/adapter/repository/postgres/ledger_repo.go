package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// TotalBalance returns the sum of all account balances.
func (r *LedgerRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance), 0) FROM accounts`

	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query).Scan(&total)

	return total, err
}

// CountAccounts returns the number of accounts.
func (r *LedgerRepository) CountAccounts(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM accounts`

	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)

	return count, err
}
