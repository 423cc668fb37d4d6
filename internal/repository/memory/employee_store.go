package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/riolentius/retail-backoffice/internal/usecase/auth"
)

var ErrEmployeeMissing = errors.New("employee not found")

// EmployeeStore indexes employees by lower-cased email.
type EmployeeStore struct {
	mu      sync.RWMutex
	byEmail map[string]auth.Employee
}

func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{byEmail: make(map[string]auth.Employee)}
}

func (s *EmployeeStore) Add(e auth.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Email = strings.ToLower(e.Email)
	e.Permissions = slices.Clone(e.Permissions)
	s.byEmail[e.Email] = e
}

func (s *EmployeeStore) FindByEmail(ctx context.Context, email string) (*auth.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrEmployeeMissing
	}
	e.Permissions = slices.Clone(e.Permissions)
	return &e, nil
}

var _ auth.EmployeeFinder = (*EmployeeStore)(nil)
