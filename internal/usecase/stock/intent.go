package stock

import "fmt"

type TransactionType string

const (
	TypeIn         TransactionType = "in"
	TypeOut        TransactionType = "out"
	TypePendingIn  TransactionType = "pending_in"
	TypePendingOut TransactionType = "pending_out"
	TypeSaved      TransactionType = "saved"
	TypeQuote      TransactionType = "quote"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIn, TypeOut, TypePendingIn, TypePendingOut, TypeSaved, TypeQuote:
		return true
	default:
		return false
	}
}

// Mutates reports whether intents of this type touch the counters at all.
func (t TransactionType) Mutates() bool {
	switch t {
	case TypeIn, TypeOut, TypePendingIn, TypePendingOut:
		return true
	default:
		return false
	}
}

// Intent asks for one counter bucket to be adjusted.
type Intent struct {
	VariantCode     string          `json:"variantCode"`
	ProductSKU      string          `json:"productSku"`
	StoreCode       string          `json:"storeCode"`
	StoreID         string          `json:"storeId"`
	TransactionType TransactionType `json:"transactionType"`
	Quantity        float64         `json:"quantity"`
}

func (i Intent) String() string {
	return fmt.Sprintf("%s %v of %s/%s at %s", i.TransactionType, i.Quantity, i.ProductSKU, i.VariantCode, i.StoreCode)
}

// Delta is the change a transaction type applies to a bucket.
func Delta(t TransactionType, qty float64) Quantity {
	switch t {
	case TypeIn:
		return Quantity{Sellable: qty}
	case TypeOut:
		return Quantity{Sellable: -qty}
	case TypePendingIn:
		return Quantity{OnOrder: qty}
	case TypePendingOut:
		return Quantity{Allocated: qty}
	default:
		return Quantity{}
	}
}

func (q Quantity) Add(d Quantity) Quantity {
	return Quantity{
		Sellable:   q.Sellable + d.Sellable,
		Unsellable: q.Unsellable + d.Unsellable,
		OnOrder:    q.OnOrder + d.OnOrder,
		Allocated:  q.Allocated + d.Allocated,
	}
}

// ApplyIntent returns a copy of p with the intent applied. The boolean is false
// when nothing changed: draft types, an unknown variant or a store without a bucket.
func ApplyIntent(p Product, in Intent) (Product, bool) {
	if !in.TransactionType.Mutates() {
		return p, false
	}

	out := p.Clone()
	for vi := range out.Variants {
		v := &out.Variants[vi]
		if v.Barcode != in.VariantCode {
			continue
		}
		for si := range v.Stock {
			s := &v.Stock[si]
			if s.StoreCode != in.StoreCode {
				continue
			}
			s.Quantity = s.Quantity.Add(Delta(in.TransactionType, in.Quantity))
			return out, true
		}
		return p, false
	}
	return p, false
}
