package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHas(t *testing.T) {
	s := Session{TenantID: "t1", Permissions: []Action{ActionReadTransaction}}
	assert.True(t, s.Has(ActionReadTransaction))
	assert.False(t, s.Has(ActionDeleteTransaction))
}

func TestContextRoundTrip(t *testing.T) {
	_, err := From(context.Background())
	require.ErrorIs(t, err, ErrMissing)

	want := Session{TenantID: "t1", EmployeeID: "e1", Permissions: All}
	got, err := From(With(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = From(With(context.Background(), Session{EmployeeID: "e1"}))
	require.ErrorIs(t, err, ErrMissing)
}

func TestParseActions(t *testing.T) {
	got := ParseActions([]string{"transaction:read", "bogus", "transaction:read", "jobs:read"})
	assert.Equal(t, []Action{ActionReadTransaction, ActionFetchJobs}, got)
	assert.Equal(t, []string{"transaction:read", "jobs:read"}, Strings(got))
}
