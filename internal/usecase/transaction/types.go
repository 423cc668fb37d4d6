package transaction

import (
	"time"

	"github.com/riolentius/retail-backoffice/internal/usecase/order"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

type Type = stock.TransactionType

const (
	TypeIn         = stock.TypeIn
	TypeOut        = stock.TypeOut
	TypePendingIn  = stock.TypePendingIn
	TypePendingOut = stock.TypePendingOut
	TypeSaved      = stock.TypeSaved
	TypeQuote      = stock.TypeQuote
)

type Transaction struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"-"`
	Customer        CustomerRef     `json:"customer"`
	TransactionType Type            `json:"transactionType"`
	Products        []order.Order   `json:"products"`
	OrderTotal      float64         `json:"orderTotal"`
	Payments        []Payment       `json:"payment"`
	OrderDate       time.Time       `json:"orderDate"`
	OrderNotes      []order.Note    `json:"orderNotes"`
	Salesperson     string          `json:"salesperson"`
	Kiosk           string          `json:"kiosk"`
	Reconciliation  *Reconciliation `json:"reconciliation,omitempty"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Payment struct {
	ID            string    `json:"id"`
	Method        string    `json:"paymentMethod"`
	Amount        float64   `json:"amount"`
	Processor     string    `json:"processor"`
	ProcessingFee float64   `json:"processingFee"`
	Status        string    `json:"status"`
	Reference     *string   `json:"reference,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	PaymentStatusUnfulfilled = "unfulfilled"
	PaymentStatusPending     = "pending"
	PaymentStatusProcessing  = "processing"
	PaymentStatusFailed      = "failed"
	PaymentStatusCompleted   = "completed"
)

const (
	ReconciliationRequired   = "required"
	ReconciliationInProgress = "reconciling"
)

// Reconciliation marks a transaction whose stock intents did not all apply.
type Reconciliation struct {
	Status    string         `json:"status"`
	Failures  []FailedIntent `json:"failures"`
	FlaggedAt time.Time      `json:"flaggedAt"`
}

type FailedIntent struct {
	Intent   stock.Intent `json:"intent"`
	Cause    string       `json:"cause"`
	Attempts int          `json:"attempts"`
}

type CreateInput struct {
	Customer        CustomerRef   `json:"customer"`
	TransactionType Type          `json:"transactionType"`
	Products        []order.Order `json:"products"`
	OrderTotal      float64       `json:"orderTotal"`
	Payments        []Payment     `json:"payment"`
	OrderNotes      []order.Note  `json:"orderNotes"`
	Kiosk           string        `json:"kiosk"`
	Salesperson     string        `json:"-"`
}

type UpdateOrderStatusInput struct {
	Status order.Status `json:"status"`
	Reason string       `json:"reason"`
}

type UpdateProductStatusInput struct {
	Status order.PickStatus `json:"status"`
}

// Job is an order scheduled to leave (deliverable) or reach (receivable) a store.
type Job struct {
	TransactionID string      `json:"transactionId"`
	Order         order.Order `json:"order"`
}
