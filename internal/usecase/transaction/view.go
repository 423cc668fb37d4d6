package transaction

import (
	"github.com/shopspring/decimal"
)

const (
	PaymentStateUnpaid   = "unpaid"
	PaymentStatePartial  = "partial"
	PaymentStatePaid     = "paid"
	PaymentStateOverpaid = "overpaid"
)

// PaymentState summarises paid against owed amounts, rounded to cents.
type PaymentState struct {
	TransactionID string `json:"transactionId"`
	TotalAmount   string `json:"totalAmount"`
	PaidAmount    string `json:"paidAmount"`
	BalanceDue    string `json:"balanceDue"`
	PaymentStatus string `json:"paymentStatus"`
}

func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

func NewPaymentState(tx Transaction) PaymentState {
	total := decimal.NewFromFloat(TotalCost(tx)).Round(2)
	paid := decimal.NewFromFloat(TotalPaid(tx.Payments)).Round(2)
	due := total.Sub(paid)

	status := PaymentStatePartial
	switch {
	case paid.IsZero() && total.IsPositive():
		status = PaymentStateUnpaid
	case due.IsZero():
		status = PaymentStatePaid
	case due.IsNegative():
		status = PaymentStateOverpaid
	}

	return PaymentState{
		TransactionID: tx.ID,
		TotalAmount:   total.StringFixed(2),
		PaidAmount:    paid.StringFixed(2),
		BalanceDue:    due.StringFixed(2),
		PaymentStatus: status,
	}
}
