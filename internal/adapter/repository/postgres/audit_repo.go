package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository on the append-only
// transfer_records table. The BIGSERIAL id doubles as the ordering key.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditInsert = `
	INSERT INTO transfer_records (sender_id, receiver_id, amount, status, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

// Append inserts a record outside any transaction and assigns its ID.
// Used for failures that must be recorded even though no transfer ran.
func (r *AuditRepository) Append(ctx context.Context, record *domain.TransferRecord) error {
	return r.pool.QueryRow(ctx, auditInsert,
		record.SenderID,
		record.ReceiverID,
		record.Amount,
		record.Status,
		record.Description,
		record.CreatedAt,
	).Scan(&record.ID)
}

// AppendTx inserts a record within a transaction and assigns its ID.
func (r *AuditRepository) AppendTx(ctx context.Context, tx usecase.Transaction, record *domain.TransferRecord) error {
	return tx.(*Tx).PgxTx().QueryRow(ctx, auditInsert,
		record.SenderID,
		record.ReceiverID,
		record.Amount,
		record.Status,
		record.Description,
		record.CreatedAt,
	).Scan(&record.ID)
}

const auditSelect = `
	SELECT id, sender_id, receiver_id, amount, status, description, created_at
	FROM transfer_records`

// ListBySender retrieves all records sent by an account, newest first.
func (r *AuditRepository) ListBySender(ctx context.Context, senderID string) ([]*domain.TransferRecord, error) {
	query := auditSelect + `
		WHERE sender_id = $1
		ORDER BY created_at DESC, id DESC
	`

	return r.queryRecords(ctx, query, senderID)
}

// ListByReceiver retrieves all records received by an account, newest first.
func (r *AuditRepository) ListByReceiver(ctx context.Context, receiverID string) ([]*domain.TransferRecord, error) {
	query := auditSelect + `
		WHERE receiver_id = $1
		ORDER BY created_at DESC, id DESC
	`

	return r.queryRecords(ctx, query, receiverID)
}

// SumByStatus sums the amounts of all records with the given status.
func (r *AuditRepository) SumByStatus(ctx context.Context, status domain.TransferStatus) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transfer_records
		WHERE status = $1
	`

	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx, query, status).Scan(&sum)

	return sum, err
}

func (r *AuditRepository) queryRecords(ctx context.Context, query string, arg any) ([]*domain.TransferRecord, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.TransferRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.TransferRecord, error) {
	var record domain.TransferRecord
	err := row.Scan(
		&record.ID,
		&record.SenderID,
		&record.ReceiverID,
		&record.Amount,
		&record.Status,
		&record.Description,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}
