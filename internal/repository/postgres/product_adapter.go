package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	productuc "github.com/riolentius/retail-backoffice/internal/usecase/product"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

const uniqueViolation = "23505"

type ProductStoreAdapter struct {
	repo *ProductRepo
}

func NewProductStoreAdapter(repo *ProductRepo) *ProductStoreAdapter {
	return &ProductStoreAdapter{repo: repo}
}

func (a *ProductStoreAdapter) Create(ctx context.Context, tenantID string, p stock.Product) (*stock.Product, error) {
	in, err := productToRow(tenantID, p)
	if err != nil {
		return nil, err
	}
	row, err := a.repo.Create(ctx, in)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", stock.ErrProductExists, p.SKU)
		}
		return nil, fmt.Errorf("%w: insert product %s: %w", stock.ErrPersistence, p.SKU, err)
	}
	return rowToProduct(row)
}

func (a *ProductStoreAdapter) FetchByID(ctx context.Context, tenantID, sku string) (*stock.Product, error) {
	row, err := a.repo.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", stock.ErrProductMissing, sku)
		}
		return nil, fmt.Errorf("%w: fetch product %s: %w", stock.ErrPersistence, sku, err)
	}
	return rowToProduct(row)
}

func (a *ProductStoreAdapter) List(ctx context.Context, tenantID string, limit, offset int) ([]stock.Product, error) {
	rows, err := a.repo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %w", stock.ErrPersistence, err)
	}

	out := make([]stock.Product, 0, len(rows))
	for i := range rows {
		p, err := rowToProduct(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (a *ProductStoreAdapter) Update(ctx context.Context, tenantID, sku string, p stock.Product) (*stock.Product, error) {
	p.SKU = sku
	in, err := productToRow(tenantID, p)
	if err != nil {
		return nil, err
	}

	row, err := a.repo.UpdateIfVersion(ctx, in, p.Version)
	if err == nil {
		return rowToProduct(row)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: update product %s: %w", stock.ErrPersistence, sku, err)
	}

	exists, err := a.repo.Exists(ctx, tenantID, sku)
	if err != nil {
		return nil, fmt.Errorf("%w: update product %s: %w", stock.ErrPersistence, sku, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", stock.ErrProductMissing, sku)
	}
	return nil, fmt.Errorf("%w: %s, write based on version %d", stock.ErrVersionConflict, sku, p.Version)
}

func productToRow(tenantID string, p stock.Product) (ProductRow, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	variants := p.Variants
	if variants == nil {
		variants = []stock.Variant{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return ProductRow{}, fmt.Errorf("%w: encode tags: %w", stock.ErrPersistence, err)
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return ProductRow{}, fmt.Errorf("%w: encode variants: %w", stock.ErrPersistence, err)
	}

	return ProductRow{
		TenantID: tenantID,
		SKU:      p.SKU,
		Name:     p.Name,
		Company:  p.Company,
		Tags:     tagsJSON,
		Variants: variantsJSON,
		Version:  p.Version,
	}, nil
}

func rowToProduct(r *ProductRow) (*stock.Product, error) {
	p := stock.Product{
		SKU:       r.SKU,
		Name:      r.Name,
		Company:   r.Company,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("%w: decode tags of %s: %w", stock.ErrPersistence, r.SKU, err)
	}
	if err := json.Unmarshal(r.Variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("%w: decode variants of %s: %w", stock.ErrPersistence, r.SKU, err)
	}
	return &p, nil
}

var (
	_ stock.ProductStore     = (*ProductStoreAdapter)(nil)
	_ productuc.ProductStore = (*ProductStoreAdapter)(nil)
)
