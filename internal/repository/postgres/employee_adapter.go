package postgres

import (
	"context"

	"github.com/riolentius/retail-backoffice/internal/session"
	authuc "github.com/riolentius/retail-backoffice/internal/usecase/auth"
)

type EmployeeFinderAdapter struct {
	repo *EmployeeRepo
}

func NewEmployeeFinderAdapter(repo *EmployeeRepo) *EmployeeFinderAdapter {
	return &EmployeeFinderAdapter{repo: repo}
}

func (a *EmployeeFinderAdapter) FindByEmail(ctx context.Context, email string) (*authuc.Employee, error) {
	r, err := a.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &authuc.Employee{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		Permissions:  session.ParseActions(r.Permissions),
	}, nil
}

var _ authuc.EmployeeFinder = (*EmployeeFinderAdapter)(nil)
