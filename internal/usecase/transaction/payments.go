package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddPaymentInput records money received after the transaction was created,
// e.g. the deposit on a saved draft. Amounts accept JSON numbers or strings.
type AddPaymentInput struct {
	Method        string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Processor     string          `json:"processor"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
	Reference     *string         `json:"reference"`
	PaidAt        *time.Time      `json:"paidAt"` // optional (default now)
}

func (u *Usecase) AddPayment(ctx context.Context, tenantID, id string, in AddPaymentInput) (*Payment, *PaymentState, error) {
	in.Method = strings.TrimSpace(in.Method)
	if tenantID == "" || id == "" || in.Method == "" {
		return nil, nil, ErrInvalidInput
	}
	if !in.Amount.IsPositive() || in.ProcessingFee.IsNegative() {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	p := Payment{
		ID:            uuid.NewString(),
		Method:        in.Method,
		Amount:        in.Amount.InexactFloat64(),
		Processor:     in.Processor,
		ProcessingFee: in.ProcessingFee.InexactFloat64(),
		Status:        PaymentStatusCompleted,
		Reference:     in.Reference,
		Timestamp:     u.now(),
	}
	if in.PaidAt != nil {
		p.Timestamp = in.PaidAt.UTC()
	}

	out, err := u.mutate(ctx, tenantID, id, func(tx *Transaction) error {
		tx.Payments = append(tx.Payments, p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	state := NewPaymentState(*out)
	return &p, &state, nil
}

func (u *Usecase) ListPayments(ctx context.Context, tenantID, id string) ([]Payment, error) {
	tx, err := u.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return tx.Payments, nil
}
