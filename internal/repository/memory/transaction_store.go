package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

// TransactionStore keeps transactions per tenant as encoded documents, the
// same shape the postgres store keeps in its JSONB columns.
type TransactionStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{docs: make(map[string]map[string][]byte)}
}

func encode(tx transaction.Transaction) ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: encode transaction %s: %w", transaction.ErrPersistence, tx.ID, err)
	}
	return b, nil
}

func decode(tenantID string, b []byte) (transaction.Transaction, error) {
	var tx transaction.Transaction
	if err := json.Unmarshal(b, &tx); err != nil {
		return tx, fmt.Errorf("%w: decode transaction: %w", transaction.ErrPersistence, err)
	}
	tx.TenantID = tenantID
	return tx, nil
}

func (s *TransactionStore) Insert(ctx context.Context, tenantID string, tx transaction.Transaction) (*transaction.Transaction, error) {
	tx.TenantID = tenantID
	tx.Version = 1
	b, err := encode(tx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byTenant, ok := s.docs[tenantID]
	if !ok {
		byTenant = make(map[string][]byte)
		s.docs[tenantID] = byTenant
	}
	if _, exists := byTenant[tx.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate transaction id %s", transaction.ErrPersistence, tx.ID)
	}
	byTenant[tx.ID] = b

	out, err := decode(tenantID, b)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionStore) FetchByID(ctx context.Context, tenantID, id string) (*transaction.Transaction, error) {
	s.mu.RLock()
	b, ok := s.docs[tenantID][id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}

	tx, err := decode(tenantID, b)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *TransactionStore) FetchByReference(ctx context.Context, tenantID, reference string) ([]transaction.Transaction, error) {
	needle := strings.ToLower(reference)
	return s.filter(tenantID, func(tx transaction.Transaction) bool {
		if tx.TransactionType == transaction.TypeSaved {
			return false
		}
		for _, o := range tx.Products {
			if strings.Contains(strings.ToLower(o.Reference), needle) {
				return true
			}
		}
		return false
	})
}

func (s *TransactionStore) FetchAllSaved(ctx context.Context, tenantID string) ([]transaction.Transaction, error) {
	return s.filter(tenantID, func(tx transaction.Transaction) bool {
		return tx.TransactionType == transaction.TypeSaved
	})
}

func (s *TransactionStore) FetchAll(ctx context.Context, tenantID string) ([]transaction.Transaction, error) {
	return s.filter(tenantID, func(tx transaction.Transaction) bool {
		return tx.TransactionType != transaction.TypeSaved
	})
}

func (s *TransactionStore) Update(ctx context.Context, tenantID string, tx transaction.Transaction) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.docs[tenantID][tx.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", transaction.ErrNotFound, tx.ID)
	}
	cur, err := decode(tenantID, b)
	if err != nil {
		return nil, err
	}
	if cur.Version != tx.Version {
		return nil, fmt.Errorf("%w: %s at version %d, write based on %d",
			transaction.ErrVersionConflict, tx.ID, cur.Version, tx.Version)
	}

	tx.TenantID = tenantID
	tx.Version = cur.Version + 1
	tx.CreatedAt = cur.CreatedAt
	next, err := encode(tx)
	if err != nil {
		return nil, err
	}
	s.docs[tenantID][tx.ID] = next

	out, err := decode(tenantID, next)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionStore) Delete(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[tenantID][id]; !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	delete(s.docs[tenantID], id)
	return nil
}

func (s *TransactionStore) DeleteSavedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for tenantID, byID := range s.docs {
		for id, b := range byID {
			tx, err := decode(tenantID, b)
			if err != nil {
				return n, err
			}
			if tx.TransactionType == transaction.TypeSaved && tx.CreatedAt.Before(cutoff) {
				delete(byID, id)
				n++
			}
		}
	}
	return n, nil
}

func (s *TransactionStore) filter(tenantID string, keep func(transaction.Transaction) bool) ([]transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]transaction.Transaction, 0)
	for _, b := range s.docs[tenantID] {
		tx, err := decode(tenantID, b)
		if err != nil {
			return nil, err
		}
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

var _ transaction.Store = (*TransactionStore)(nil)
