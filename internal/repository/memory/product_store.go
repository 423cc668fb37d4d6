package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

// ProductStore keeps products per tenant. Every read and write copies the
// aggregate so callers never share slices with the store.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]map[string]stock.Product
	now      func() time.Time
}

func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]map[string]stock.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductStore) Create(ctx context.Context, tenantID string, p stock.Product) (*stock.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTenant, ok := s.products[tenantID]
	if !ok {
		byTenant = make(map[string]stock.Product)
		s.products[tenantID] = byTenant
	}
	if _, exists := byTenant[p.SKU]; exists {
		return nil, fmt.Errorf("%w: %s", stock.ErrProductExists, p.SKU)
	}

	now := s.now()
	p = p.Clone()
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
	byTenant[p.SKU] = p

	out := p.Clone()
	return &out, nil
}

func (s *ProductStore) FetchByID(ctx context.Context, tenantID, sku string) (*stock.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[tenantID][sku]
	if !ok {
		return nil, fmt.Errorf("%w: %s", stock.ErrProductMissing, sku)
	}
	out := p.Clone()
	return &out, nil
}

func (s *ProductStore) List(ctx context.Context, tenantID string, limit, offset int) ([]stock.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]stock.Product, 0, len(s.products[tenantID]))
	for _, p := range s.products[tenantID] {
		all = append(all, p.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })

	if offset >= len(all) {
		return []stock.Product{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Update writes p only if the stored version still equals p.Version.
func (s *ProductStore) Update(ctx context.Context, tenantID, sku string, p stock.Product) (*stock.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.products[tenantID][sku]
	if !ok {
		return nil, fmt.Errorf("%w: %s", stock.ErrProductMissing, sku)
	}
	if cur.Version != p.Version {
		return nil, fmt.Errorf("%w: %s at version %d, write based on %d",
			stock.ErrVersionConflict, sku, cur.Version, p.Version)
	}

	p = p.Clone()
	p.SKU = sku
	p.Version = cur.Version + 1
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = s.now()
	s.products[tenantID][sku] = p

	out := p.Clone()
	return &out, nil
}

var _ stock.ProductStore = (*ProductStore)(nil)
