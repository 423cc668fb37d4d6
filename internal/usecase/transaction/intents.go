package transaction

import (
	"math"

	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

// GenerateIntents emits one intent per purchase line, taken from the order's origin store.
func GenerateIntents(tx Transaction) []stock.Intent {
	var out []stock.Intent
	for _, o := range tx.Products {
		for _, p := range o.Products {
			out = append(out, stock.Intent{
				VariantCode:     p.VariantCode,
				ProductSKU:      p.ProductSKU,
				StoreCode:       o.Origin.StoreCode,
				StoreID:         o.Origin.StoreID,
				TransactionType: tx.TransactionType,
				Quantity:        p.Quantity,
			})
		}
	}
	return out
}

func TotalPaid(payments []Payment) float64 {
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum
}

// TotalCost applies each order's discount to the sum of its discounted lines,
// then sums the orders in submission order.
func TotalCost(tx Transaction) float64 {
	var sum float64
	for _, o := range tx.Products {
		sum += o.Total()
	}
	return sum
}

func withinTolerance(paid, cost, tolerance float64) bool {
	return math.Abs(paid-cost) <= tolerance
}
