package session

import (
	"context"
	"errors"
	"slices"
)

var ErrMissing = errors.New("no session in context")

type Action string

const (
	ActionCreateTransaction Action = "transaction:create"
	ActionReadTransaction   Action = "transaction:read"
	ActionUpdateTransaction Action = "transaction:update"
	ActionDeleteTransaction Action = "transaction:delete"
	ActionFetchJobs         Action = "jobs:read"
	ActionReadProducts      Action = "product:read"
	ActionManageProducts    Action = "product:write"
)

// All is every action an employee can be granted.
var All = []Action{
	ActionCreateTransaction,
	ActionReadTransaction,
	ActionUpdateTransaction,
	ActionDeleteTransaction,
	ActionFetchJobs,
	ActionReadProducts,
	ActionManageProducts,
}

// Session identifies who is acting and for which tenant.
type Session struct {
	TenantID    string
	EmployeeID  string
	Permissions []Action
}

func (s Session) Has(a Action) bool {
	return slices.Contains(s.Permissions, a)
}

type ctxKey struct{}

func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func From(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s.TenantID == "" {
		return Session{}, ErrMissing
	}
	return s, nil
}

// ParseActions keeps the known actions of raw and drops the rest.
func ParseActions(raw []string) []Action {
	out := make([]Action, 0, len(raw))
	for _, r := range raw {
		if a := Action(r); slices.Contains(All, a) && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func Strings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}
