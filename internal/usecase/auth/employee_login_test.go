package auth_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/riolentius/retail-backoffice/internal/repository/memory"
	"github.com/riolentius/retail-backoffice/internal/session"
	"github.com/riolentius/retail-backoffice/internal/usecase/auth"
)

const secret = "test-secret"

func newUsecase(t *testing.T) *auth.EmployeeLoginUsecase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.NewEmployeeStore()
	store.Add(auth.Employee{
		ID:           "emp-1",
		TenantID:     "tenant-a",
		Email:        "Clerk@Shop.test",
		PasswordHash: string(hash),
		IsActive:     true,
		Permissions:  []session.Action{session.ActionReadTransaction, session.ActionFetchJobs},
	})
	store.Add(auth.Employee{
		ID:           "emp-2",
		TenantID:     "tenant-a",
		Email:        "gone@shop.test",
		PasswordHash: string(hash),
	})
	return auth.NewEmployeeLoginUsecase(store, secret, 15)
}

func TestExecute_IssuesTenantScopedToken(t *testing.T) {
	uc := newUsecase(t)

	res, err := uc.Execute(context.Background(), " clerk@shop.test ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 15*60, res.ExpiresIn)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims["sub"])
	assert.Equal(t, "tenant-a", claims["tid"])
	assert.Equal(t, auth.TokenType, claims["typ"])
	assert.Equal(t, []any{"transaction:read", "jobs:read"}, claims["perm"])
}

func TestExecute_Rejections(t *testing.T) {
	uc := newUsecase(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "clerk@shop.test", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = uc.Execute(ctx, "nobody@shop.test", "hunter2")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = uc.Execute(ctx, "gone@shop.test", "hunter2")
	require.ErrorIs(t, err, auth.ErrInactiveEmployee)
}
