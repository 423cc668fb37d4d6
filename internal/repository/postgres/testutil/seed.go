package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

// MustInsertProduct stores a product with one variant stocked at the given
// stores, every bucket starting at sellable.
func MustInsertProduct(t *testing.T, db *pgxpool.Pool, tenantID, sku, variant string, sellable float64, stores ...string) {
	t.Helper()

	v := stock.Variant{Name: variant, Barcode: variant}
	for _, code := range stores {
		v.Stock = append(v.Stock, stock.Stock{StoreCode: code, StoreID: "store-" + code, Quantity: stock.Quantity{Sellable: sellable}})
	}
	variants, err := json.Marshal([]stock.Variant{v})
	require.NoError(t, err)

	_, err = db.Exec(context.Background(), `
		INSERT INTO products (tenant_id, sku, name, variants)
		VALUES ($1, $2, $3, $4::jsonb)
	`, tenantID, sku, "Product "+sku, variants)
	require.NoError(t, err)
}

func MustInsertEmployee(t *testing.T, db *pgxpool.Pool, tenantID, email, password string, permissions ...string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	if permissions == nil {
		permissions = []string{}
	}

	var id string
	err = db.QueryRow(context.Background(), `
		INSERT INTO employees (tenant_id, email, password_hash, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, tenantID, email, string(hash), permissions).Scan(&id)

	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}
