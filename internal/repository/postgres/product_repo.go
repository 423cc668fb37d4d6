package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRow struct {
	TenantID  string
	SKU       string
	Name      string
	Company   string
	Tags      []byte
	Variants  []byte
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProductRepo struct {
	db *pgxpool.Pool
}

func NewProductRepo(db *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{db: db}
}

const productColumns = `tenant_id, sku, name, company, tags, variants, version, created_at, updated_at`

func scanProduct(row pgx.Row) (*ProductRow, error) {
	var out ProductRow
	if err := row.Scan(
		&out.TenantID,
		&out.SKU,
		&out.Name,
		&out.Company,
		&out.Tags,
		&out.Variants,
		&out.Version,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductRepo) Create(ctx context.Context, in ProductRow) (*ProductRow, error) {
	const q = `
INSERT INTO products (tenant_id, sku, name, company, tags, variants, version)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, 1)
RETURNING ` + productColumns + `;
`
	return scanProduct(r.db.QueryRow(ctx, q, in.TenantID, in.SKU, in.Name, in.Company, in.Tags, in.Variants))
}

func (r *ProductRepo) FindBySKU(ctx context.Context, tenantID, sku string) (*ProductRow, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE tenant_id = $1 AND sku = $2;
`
	return scanProduct(r.db.QueryRow(ctx, q, tenantID, sku))
}

func (r *ProductRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]ProductRow, error) {
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE tenant_id = $1
ORDER BY sku ASC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.Query(ctx, q, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProductRow, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateIfVersion writes in only while the stored version is still expected.
// pgx.ErrNoRows means the row is gone or was written in between.
func (r *ProductRepo) UpdateIfVersion(ctx context.Context, in ProductRow, expected int64) (*ProductRow, error) {
	const q = `
UPDATE products
SET
  name = $4,
  company = $5,
  tags = $6::jsonb,
  variants = $7::jsonb,
  version = version + 1,
  updated_at = now()
WHERE tenant_id = $1 AND sku = $2 AND version = $3
RETURNING ` + productColumns + `;
`
	return scanProduct(r.db.QueryRow(ctx, q,
		in.TenantID, in.SKU, expected,
		in.Name, in.Company, in.Tags, in.Variants,
	))
}

func (r *ProductRepo) Exists(ctx context.Context, tenantID, sku string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM products WHERE tenant_id = $1 AND sku = $2)`
	var ok bool
	if err := r.db.QueryRow(ctx, q, tenantID, sku).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
