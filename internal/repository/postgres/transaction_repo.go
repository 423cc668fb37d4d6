package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRow keeps the nested parts of a transaction as raw JSONB.
type TransactionRow struct {
	TenantID        string
	ID              string
	TransactionType string
	Customer        []byte
	Orders          []byte
	Payments        []byte
	OrderNotes      []byte
	Reconciliation  []byte // nil when not flagged
	OrderTotal      float64
	OrderDate       time.Time
	Salesperson     string
	Kiosk           string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TransactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepo(db *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const transactionColumns = `tenant_id, id, transaction_type, customer, orders, payments, order_notes,
  reconciliation, order_total, order_date, salesperson, kiosk, version, created_at, updated_at`

func scanTransaction(row pgx.Row) (*TransactionRow, error) {
	var out TransactionRow
	if err := row.Scan(
		&out.TenantID,
		&out.ID,
		&out.TransactionType,
		&out.Customer,
		&out.Orders,
		&out.Payments,
		&out.OrderNotes,
		&out.Reconciliation,
		&out.OrderTotal,
		&out.OrderDate,
		&out.Salesperson,
		&out.Kiosk,
		&out.Version,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TransactionRepo) Insert(ctx context.Context, in TransactionRow) (*TransactionRow, error) {
	const q = `
INSERT INTO transactions (
  tenant_id, id, transaction_type, customer, orders, payments, order_notes,
  reconciliation, order_total, order_date, salesperson, kiosk, version, created_at, updated_at
)
VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb, $9, $10, $11, $12, 1, $13, $14)
RETURNING ` + transactionColumns + `;
`
	return scanTransaction(r.db.QueryRow(ctx, q,
		in.TenantID, in.ID, in.TransactionType,
		in.Customer, in.Orders, in.Payments, in.OrderNotes, in.Reconciliation,
		in.OrderTotal, in.OrderDate, in.Salesperson, in.Kiosk,
		in.CreatedAt, in.UpdatedAt,
	))
}

func (r *TransactionRepo) FindByID(ctx context.Context, tenantID, id string) (*TransactionRow, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND id = $2;
`
	return scanTransaction(r.db.QueryRow(ctx, q, tenantID, id))
}

// FindByReference matches pattern (an ILIKE pattern) against the reference
// of every order. Saved drafts are not searched.
func (r *TransactionRepo) FindByReference(ctx context.Context, tenantID, pattern string) ([]TransactionRow, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions t
WHERE t.tenant_id = $1
  AND t.transaction_type <> 'saved'
  AND EXISTS (
    SELECT 1 FROM jsonb_array_elements(t.orders) o
    WHERE o->>'reference' ILIKE $2
  )
ORDER BY t.created_at ASC, t.id ASC;
`
	return r.list(ctx, q, tenantID, pattern)
}

func (r *TransactionRepo) ListSaved(ctx context.Context, tenantID string) ([]TransactionRow, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND transaction_type = 'saved'
ORDER BY created_at ASC, id ASC;
`
	return r.list(ctx, q, tenantID)
}

func (r *TransactionRepo) ListCommitted(ctx context.Context, tenantID string) ([]TransactionRow, error) {
	const q = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE tenant_id = $1 AND transaction_type <> 'saved'
ORDER BY created_at ASC, id ASC;
`
	return r.list(ctx, q, tenantID)
}

func (r *TransactionRepo) list(ctx context.Context, q string, args ...any) ([]TransactionRow, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TransactionRow, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateIfVersion rewrites the mutable columns while the stored version is
// still expected. created_at and the type never change.
func (r *TransactionRepo) UpdateIfVersion(ctx context.Context, in TransactionRow, expected int64) (*TransactionRow, error) {
	const q = `
UPDATE transactions
SET
  customer = $4::jsonb,
  orders = $5::jsonb,
  payments = $6::jsonb,
  order_notes = $7::jsonb,
  reconciliation = $8::jsonb,
  order_total = $9,
  salesperson = $10,
  kiosk = $11,
  updated_at = $12,
  version = version + 1
WHERE tenant_id = $1 AND id = $2 AND version = $3
RETURNING ` + transactionColumns + `;
`
	return scanTransaction(r.db.QueryRow(ctx, q,
		in.TenantID, in.ID, expected,
		in.Customer, in.Orders, in.Payments, in.OrderNotes, in.Reconciliation,
		in.OrderTotal, in.Salesperson, in.Kiosk, in.UpdatedAt,
	))
}

func (r *TransactionRepo) Exists(ctx context.Context, tenantID, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM transactions WHERE tenant_id = $1 AND id = $2)`
	var ok bool
	if err := r.db.QueryRow(ctx, q, tenantID, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *TransactionRepo) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TransactionRepo) DeleteSavedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM transactions WHERE transaction_type = 'saved' AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
