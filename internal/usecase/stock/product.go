package stock

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrProductMissing  = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
	ErrVersionConflict = errors.New("product was modified concurrently")
	ErrPersistence     = errors.New("persistence failure")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Quantity holds the four counters tracked per variant and store.
type Quantity struct {
	Sellable   float64 `json:"sellable"`
	Unsellable float64 `json:"unsellable"`
	OnOrder    float64 `json:"onOrder"`
	Allocated  float64 `json:"allocated"`
}

type Stock struct {
	StoreCode string   `json:"storeCode"`
	StoreID   string   `json:"storeId"`
	Quantity  Quantity `json:"quantity"`
}

type Variant struct {
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	RetailPrice   float64 `json:"retailPrice"`
	MarginalPrice float64 `json:"marginalPrice"`
	Stock         []Stock `json:"stock"`
}

// Product is the stock aggregate. Version increases by one on every successful
// write and is used for compare-and-swap updates.
type Product struct {
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Tags      []string  `json:"tags"`
	Variants  []Variant `json:"variants"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductStore is the tenant scoped stock ledger.
//
// Update must only succeed when the stored version equals p.Version, and it
// returns the product with the incremented version. A stale version yields
// ErrVersionConflict.
type ProductStore interface {
	FetchByID(ctx context.Context, tenantID, sku string) (*Product, error)
	Update(ctx context.Context, tenantID, sku string, p Product) (*Product, error)
}

func (p Product) Validate() error {
	if p.SKU == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	}
	seen := map[string]bool{}
	for _, v := range p.Variants {
		if v.Barcode == "" {
			return fmt.Errorf("%w: variant %q has no barcode", ErrInvalidProduct, v.Name)
		}
		if seen[v.Barcode] {
			return fmt.Errorf("%w: duplicate variant barcode %s", ErrInvalidProduct, v.Barcode)
		}
		seen[v.Barcode] = true

		stores := map[string]bool{}
		for _, s := range v.Stock {
			if s.StoreCode == "" {
				return fmt.Errorf("%w: variant %s has a stock bucket without store", ErrInvalidProduct, v.Barcode)
			}
			if stores[s.StoreCode] {
				return fmt.Errorf("%w: variant %s lists store %s twice", ErrInvalidProduct, v.Barcode, s.StoreCode)
			}
			stores[s.StoreCode] = true
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share variant or stock slices.
func (p Product) Clone() Product {
	out := p
	out.Tags = slices.Clone(p.Tags)
	out.Variants = slices.Clone(p.Variants)
	for i, v := range p.Variants {
		out.Variants[i].Stock = slices.Clone(v.Stock)
	}
	return out
}

// Bucket returns the counters of a variant at a store.
func (p Product) Bucket(variantCode, storeCode string) (Quantity, bool) {
	for _, v := range p.Variants {
		if v.Barcode != variantCode {
			continue
		}
		for _, s := range v.Stock {
			if s.StoreCode == storeCode {
				return s.Quantity, true
			}
		}
	}
	return Quantity{}, false
}
