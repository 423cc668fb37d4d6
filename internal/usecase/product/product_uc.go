package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrVariantMissing = errors.New("variant not found")
)

const maxSetStockAttempts = 5

type ProductStore interface {
	Create(ctx context.Context, tenantID string, p stock.Product) (*stock.Product, error)
	FetchByID(ctx context.Context, tenantID, sku string) (*stock.Product, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]stock.Product, error)
	Update(ctx context.Context, tenantID, sku string, p stock.Product) (*stock.Product, error)
}

type Usecase struct {
	store ProductStore
}

func New(store ProductStore) *Usecase {
	return &Usecase{store: store}
}

type CreateInput struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Company  string          `json:"company"`
	Tags     []string        `json:"tags"`
	Variants []stock.Variant `json:"variants"`
}

func (u *Usecase) Create(ctx context.Context, tenantID string, in CreateInput) (*stock.Product, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	if tenantID == "" || in.SKU == "" || in.Name == "" {
		return nil, ErrInvalidInput
	}
	p := stock.Product{
		SKU:      in.SKU,
		Name:     in.Name,
		Company:  in.Company,
		Tags:     in.Tags,
		Variants: in.Variants,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Variants == nil {
		p.Variants = []stock.Variant{}
	}
	if err := validate(p, true); err != nil {
		return nil, err
	}
	return u.store.Create(ctx, tenantID, p)
}

func (u *Usecase) Get(ctx context.Context, tenantID, sku string) (*stock.Product, error) {
	if tenantID == "" || sku == "" {
		return nil, ErrInvalidInput
	}
	return u.store.FetchByID(ctx, tenantID, sku)
}

func (u *Usecase) List(ctx context.Context, tenantID string, limit, offset int) ([]stock.Product, error) {
	if tenantID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return u.store.List(ctx, tenantID, limit, offset)
}

// UpdateInput replaces the given fields. Version must be the version the
// client read; a stale one is rejected with stock.ErrVersionConflict.
type UpdateInput struct {
	Name     *string          `json:"name"`
	Company  *string          `json:"company"`
	Tags     *[]string        `json:"tags"`
	Variants *[]stock.Variant `json:"variants"`
	Version  int64            `json:"version"`
}

func (u *Usecase) Update(ctx context.Context, tenantID, sku string, in UpdateInput) (*stock.Product, error) {
	if tenantID == "" || sku == "" || in.Version <= 0 {
		return nil, ErrInvalidInput
	}
	cur, err := u.store.FetchByID(ctx, tenantID, sku)
	if err != nil {
		return nil, err
	}

	next := cur.Clone()
	next.Version = in.Version
	if in.Name != nil {
		if *in.Name == "" {
			return nil, ErrInvalidInput
		}
		next.Name = *in.Name
	}
	if in.Company != nil {
		next.Company = *in.Company
	}
	if in.Tags != nil {
		next.Tags = *in.Tags
	}
	if in.Variants != nil {
		next.Variants = *in.Variants
	}
	// counters already moved by transactions may be negative; only new ones are checked
	if err := validate(next, in.Variants != nil); err != nil {
		return nil, err
	}
	return u.store.Update(ctx, tenantID, sku, next)
}

type SetStockInput struct {
	StoreCode string         `json:"storeCode"`
	StoreID   string         `json:"storeId"`
	Quantity  stock.Quantity `json:"quantity"`
}

// SetStock overwrites the counters of one variant at one store, adding the
// bucket when the variant is not stocked there yet.
func (u *Usecase) SetStock(ctx context.Context, tenantID, sku, variantCode string, in SetStockInput) (*stock.Product, error) {
	if tenantID == "" || sku == "" || variantCode == "" || in.StoreCode == "" {
		return nil, ErrInvalidInput
	}
	if negative(in.Quantity) {
		return nil, fmt.Errorf("%w: counters must not be negative", ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt < maxSetStockAttempts; attempt++ {
		cur, err := u.store.FetchByID(ctx, tenantID, sku)
		if err != nil {
			return nil, err
		}
		next := cur.Clone()
		if err := setBucket(&next, variantCode, in); err != nil {
			return nil, err
		}

		out, err := u.store.Update(ctx, tenantID, sku, next)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, stock.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func setBucket(p *stock.Product, variantCode string, in SetStockInput) error {
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Barcode != variantCode {
			continue
		}
		for j := range v.Stock {
			if v.Stock[j].StoreCode == in.StoreCode {
				v.Stock[j].Quantity = in.Quantity
				if in.StoreID != "" {
					v.Stock[j].StoreID = in.StoreID
				}
				return nil
			}
		}
		v.Stock = append(v.Stock, stock.Stock{StoreCode: in.StoreCode, StoreID: in.StoreID, Quantity: in.Quantity})
		return nil
	}
	return fmt.Errorf("%w: %s has no variant %s", ErrVariantMissing, p.SKU, variantCode)
}

func validate(p stock.Product, counters bool) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !counters {
		return nil
	}
	for _, v := range p.Variants {
		for _, s := range v.Stock {
			if negative(s.Quantity) {
				return fmt.Errorf("%w: variant %s at %s has a negative counter", ErrInvalidInput, v.Barcode, s.StoreCode)
			}
		}
	}
	return nil
}

func negative(q stock.Quantity) bool {
	return q.Sellable < 0 || q.Unsellable < 0 || q.OnOrder < 0 || q.Allocated < 0
}
