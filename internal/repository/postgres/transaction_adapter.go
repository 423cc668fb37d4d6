package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	trxuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

type TransactionStoreAdapter struct {
	repo *TransactionRepo
}

func NewTransactionStoreAdapter(repo *TransactionRepo) *TransactionStoreAdapter {
	return &TransactionStoreAdapter{repo: repo}
}

func (a *TransactionStoreAdapter) Insert(ctx context.Context, tenantID string, tx trxuc.Transaction) (*trxuc.Transaction, error) {
	tx.TenantID = tenantID
	in, err := transactionToRow(tx)
	if err != nil {
		return nil, err
	}
	row, err := a.repo.Insert(ctx, in)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: duplicate transaction id %s", trxuc.ErrPersistence, tx.ID)
		}
		return nil, fmt.Errorf("%w: insert transaction %s: %w", trxuc.ErrPersistence, tx.ID, err)
	}
	return rowToTransaction(row)
}

func (a *TransactionStoreAdapter) FetchByID(ctx context.Context, tenantID, id string) (*trxuc.Transaction, error) {
	row, err := a.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", trxuc.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: fetch transaction %s: %w", trxuc.ErrPersistence, id, err)
	}
	return rowToTransaction(row)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (a *TransactionStoreAdapter) FetchByReference(ctx context.Context, tenantID, reference string) ([]trxuc.Transaction, error) {
	rows, err := a.repo.FindByReference(ctx, tenantID, "%"+likeEscaper.Replace(reference)+"%")
	return a.many(rows, err)
}

func (a *TransactionStoreAdapter) FetchAllSaved(ctx context.Context, tenantID string) ([]trxuc.Transaction, error) {
	rows, err := a.repo.ListSaved(ctx, tenantID)
	return a.many(rows, err)
}

func (a *TransactionStoreAdapter) FetchAll(ctx context.Context, tenantID string) ([]trxuc.Transaction, error) {
	rows, err := a.repo.ListCommitted(ctx, tenantID)
	return a.many(rows, err)
}

func (a *TransactionStoreAdapter) many(rows []TransactionRow, err error) ([]trxuc.Transaction, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", trxuc.ErrPersistence, err)
	}
	out := make([]trxuc.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rowToTransaction(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (a *TransactionStoreAdapter) Update(ctx context.Context, tenantID string, tx trxuc.Transaction) (*trxuc.Transaction, error) {
	tx.TenantID = tenantID
	in, err := transactionToRow(tx)
	if err != nil {
		return nil, err
	}

	row, err := a.repo.UpdateIfVersion(ctx, in, tx.Version)
	if err == nil {
		return rowToTransaction(row)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: update transaction %s: %w", trxuc.ErrPersistence, tx.ID, err)
	}

	exists, err := a.repo.Exists(ctx, tenantID, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: update transaction %s: %w", trxuc.ErrPersistence, tx.ID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", trxuc.ErrNotFound, tx.ID)
	}
	return nil, fmt.Errorf("%w: %s, write based on version %d", trxuc.ErrVersionConflict, tx.ID, tx.Version)
}

func (a *TransactionStoreAdapter) Delete(ctx context.Context, tenantID, id string) error {
	n, err := a.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("%w: delete transaction %s: %w", trxuc.ErrPersistence, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", trxuc.ErrNotFound, id)
	}
	return nil
}

func (a *TransactionStoreAdapter) DeleteSavedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := a.repo.DeleteSavedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: purge drafts: %w", trxuc.ErrPersistence, err)
	}
	return n, nil
}

func transactionToRow(tx trxuc.Transaction) (TransactionRow, error) {
	row := TransactionRow{
		TenantID:        tx.TenantID,
		ID:              tx.ID,
		TransactionType: string(tx.TransactionType),
		OrderTotal:      tx.OrderTotal,
		OrderDate:       tx.OrderDate,
		Salesperson:     tx.Salesperson,
		Kiosk:           tx.Kiosk,
		Version:         tx.Version,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}

	parts := []struct {
		name string
		v    any
		dst  *[]byte
	}{
		{"customer", tx.Customer, &row.Customer},
		{"orders", nonNil(tx.Products), &row.Orders},
		{"payments", nonNil(tx.Payments), &row.Payments},
		{"order notes", nonNil(tx.OrderNotes), &row.OrderNotes},
	}
	for _, p := range parts {
		b, err := json.Marshal(p.v)
		if err != nil {
			return row, fmt.Errorf("%w: encode %s of %s: %w", trxuc.ErrPersistence, p.name, tx.ID, err)
		}
		*p.dst = b
	}

	if tx.Reconciliation != nil {
		b, err := json.Marshal(tx.Reconciliation)
		if err != nil {
			return row, fmt.Errorf("%w: encode reconciliation of %s: %w", trxuc.ErrPersistence, tx.ID, err)
		}
		row.Reconciliation = b
	}
	return row, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func rowToTransaction(r *TransactionRow) (*trxuc.Transaction, error) {
	tx := trxuc.Transaction{
		ID:              r.ID,
		TenantID:        r.TenantID,
		TransactionType: trxuc.Type(r.TransactionType),
		OrderTotal:      r.OrderTotal,
		OrderDate:       r.OrderDate.UTC(),
		Salesperson:     r.Salesperson,
		Kiosk:           r.Kiosk,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}

	parts := []struct {
		name string
		src  []byte
		dst  any
	}{
		{"customer", r.Customer, &tx.Customer},
		{"orders", r.Orders, &tx.Products},
		{"payments", r.Payments, &tx.Payments},
		{"order notes", r.OrderNotes, &tx.OrderNotes},
	}
	for _, p := range parts {
		if err := json.Unmarshal(p.src, p.dst); err != nil {
			return nil, fmt.Errorf("%w: decode %s of %s: %w", trxuc.ErrPersistence, p.name, r.ID, err)
		}
	}

	if len(r.Reconciliation) > 0 {
		var rec trxuc.Reconciliation
		if err := json.Unmarshal(r.Reconciliation, &rec); err != nil {
			return nil, fmt.Errorf("%w: decode reconciliation of %s: %w", trxuc.ErrPersistence, r.ID, err)
		}
		tx.Reconciliation = &rec
	}
	return &tx, nil
}

var _ trxuc.Store = (*TransactionStoreAdapter)(nil)
