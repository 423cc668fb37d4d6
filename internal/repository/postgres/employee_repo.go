package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EmployeeRow struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	IsActive     bool
	Permissions  []string
}

type EmployeeRepo struct {
	db *pgxpool.Pool
}

func NewEmployeeRepo(db *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{db: db}
}

func (r *EmployeeRepo) FindByEmail(ctx context.Context, email string) (*EmployeeRow, error) {
	const q = `
SELECT id::text, tenant_id, email, password_hash, is_active, permissions
FROM employees
WHERE lower(email) = lower($1)
LIMIT 1;
`
	row := r.db.QueryRow(ctx, q, email)

	var out EmployeeRow
	if err := row.Scan(&out.ID, &out.TenantID, &out.Email, &out.PasswordHash, &out.IsActive, &out.Permissions); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *EmployeeRepo) Create(ctx context.Context, in EmployeeRow) (string, error) {
	const q = `
INSERT INTO employees (tenant_id, email, password_hash, is_active, permissions)
VALUES ($1, lower($2), $3, $4, $5)
RETURNING id::text;
`
	var id string
	if err := r.db.QueryRow(ctx, q, in.TenantID, in.Email, in.PasswordHash, in.IsActive, in.Permissions).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
