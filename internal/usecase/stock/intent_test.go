package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Product {
	return Product{
		SKU: "SKU-1",
		Variants: []Variant{
			{Barcode: "A", Stock: []Stock{{StoreCode: "001", Quantity: Quantity{Sellable: 5}}}},
			{Barcode: "B", Stock: []Stock{{StoreCode: "001"}, {StoreCode: "002"}}},
		},
	}
}

func TestApplyIntent_DoesNotAliasInput(t *testing.T) {
	p := sample()
	out, changed := ApplyIntent(p, Intent{VariantCode: "A", StoreCode: "001", TransactionType: TypeOut, Quantity: 2})

	require.True(t, changed)
	assert.Equal(t, 3.0, out.Variants[0].Stock[0].Quantity.Sellable)
	assert.Equal(t, 5.0, p.Variants[0].Stock[0].Quantity.Sellable)
}

func TestApplyIntent_OnlyMatchingBucket(t *testing.T) {
	out, changed := ApplyIntent(sample(), Intent{VariantCode: "B", StoreCode: "002", TransactionType: TypePendingIn, Quantity: 4})

	require.True(t, changed)
	q, ok := out.Bucket("B", "002")
	require.True(t, ok)
	assert.Equal(t, Quantity{OnOrder: 4}, q)
	q, _ = out.Bucket("B", "001")
	assert.Equal(t, Quantity{}, q)
}

func TestApplyIntent_FractionalQuantity(t *testing.T) {
	out, changed := ApplyIntent(sample(), Intent{VariantCode: "A", StoreCode: "001", TransactionType: TypeOut, Quantity: 1.5})
	require.True(t, changed)
	assert.Equal(t, 3.5, out.Variants[0].Stock[0].Quantity.Sellable)
}

func TestApplyIntent_NoOps(t *testing.T) {
	for _, in := range []Intent{
		{VariantCode: "A", StoreCode: "001", TransactionType: TypeSaved, Quantity: 1},
		{VariantCode: "A", StoreCode: "001", TransactionType: TypeQuote, Quantity: 1},
		{VariantCode: "Z", StoreCode: "001", TransactionType: TypeIn, Quantity: 1},
		{VariantCode: "A", StoreCode: "404", TransactionType: TypeIn, Quantity: 1},
	} {
		out, changed := ApplyIntent(sample(), in)
		assert.False(t, changed, in.String())
		assert.Equal(t, sample(), out)
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, sample().Validate())

	dup := sample()
	dup.Variants[1].Barcode = "A"
	require.ErrorIs(t, dup.Validate(), ErrInvalidProduct)

	twice := sample()
	twice.Variants[1].Stock[1].StoreCode = "001"
	require.ErrorIs(t, twice.Validate(), ErrInvalidProduct)

	require.ErrorIs(t, Product{}.Validate(), ErrInvalidProduct)
}
