package product_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riolentius/retail-backoffice/internal/repository/memory"
	"github.com/riolentius/retail-backoffice/internal/usecase/product"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

const tenant = "tenant-a"

func setup(t *testing.T) (*product.Usecase, *stock.Product) {
	t.Helper()
	uc := product.New(memory.NewProductStore())
	p, err := uc.Create(context.Background(), tenant, product.CreateInput{
		SKU:  " SKU-1 ",
		Name: "Oat milk",
		Variants: []stock.Variant{{
			Name:    "1L",
			Barcode: "VAR-1",
			Stock:   []stock.Stock{{StoreCode: "001", Quantity: stock.Quantity{Sellable: 3}}},
		}},
	})
	require.NoError(t, err)
	return uc, p
}

func TestCreate(t *testing.T) {
	uc, p := setup(t)
	ctx := context.Background()

	assert.Equal(t, "SKU-1", p.SKU)
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, []string{}, p.Tags)

	_, err := uc.Create(ctx, tenant, product.CreateInput{SKU: "SKU-1", Name: "again"})
	require.ErrorIs(t, err, stock.ErrProductExists)

	_, err = uc.Create(ctx, tenant, product.CreateInput{SKU: "SKU-2"})
	require.ErrorIs(t, err, product.ErrInvalidInput)

	_, err = uc.Create(ctx, tenant, product.CreateInput{
		SKU:      "SKU-3",
		Name:     "dup",
		Variants: []stock.Variant{{Barcode: "A"}, {Barcode: "A"}},
	})
	require.ErrorIs(t, err, product.ErrInvalidInput)
	require.ErrorIs(t, err, stock.ErrInvalidProduct)

	_, err = uc.Create(ctx, tenant, product.CreateInput{
		SKU:  "SKU-4",
		Name: "negative",
		Variants: []stock.Variant{{
			Barcode: "A",
			Stock:   []stock.Stock{{StoreCode: "001", Quantity: stock.Quantity{Allocated: -1}}},
		}},
	})
	require.ErrorIs(t, err, product.ErrInvalidInput)
}

func TestGetAndList(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, tenant, product.CreateInput{SKU: "SKU-0", Name: "Bread"})
	require.NoError(t, err)

	got, err := uc.Get(ctx, tenant, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", got.Name)

	_, err = uc.Get(ctx, "tenant-b", "SKU-1")
	require.ErrorIs(t, err, stock.ErrProductMissing)

	list, err := uc.List(ctx, tenant, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SKU-0", list[0].SKU)

	page, err := uc.List(ctx, tenant, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "SKU-1", page[0].SKU)
}

func TestUpdate_ChecksClientVersion(t *testing.T) {
	uc, p := setup(t)
	ctx := context.Background()

	name := "Oat drink"
	out, err := uc.Update(ctx, tenant, p.SKU, product.UpdateInput{Name: &name, Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)
	assert.Equal(t, int64(2), out.Version)
	assert.Len(t, out.Variants, 1, "untouched fields are kept")

	_, err = uc.Update(ctx, tenant, p.SKU, product.UpdateInput{Name: &name, Version: p.Version})
	require.ErrorIs(t, err, stock.ErrVersionConflict)

	_, err = uc.Update(ctx, tenant, p.SKU, product.UpdateInput{Name: &name})
	require.ErrorIs(t, err, product.ErrInvalidInput)
}

func TestSetStock(t *testing.T) {
	uc, p := setup(t)
	ctx := context.Background()

	out, err := uc.SetStock(ctx, tenant, p.SKU, "VAR-1", product.SetStockInput{
		StoreCode: "001", Quantity: stock.Quantity{Sellable: 7, Unsellable: 1},
	})
	require.NoError(t, err)
	q, ok := out.Bucket("VAR-1", "001")
	require.True(t, ok)
	assert.Equal(t, stock.Quantity{Sellable: 7, Unsellable: 1}, q)

	out, err = uc.SetStock(ctx, tenant, p.SKU, "VAR-1", product.SetStockInput{
		StoreCode: "002", StoreID: "store-2", Quantity: stock.Quantity{Sellable: 2},
	})
	require.NoError(t, err)
	q, ok = out.Bucket("VAR-1", "002")
	require.True(t, ok)
	assert.Equal(t, 2.0, q.Sellable)

	_, err = uc.SetStock(ctx, tenant, p.SKU, "VAR-9", product.SetStockInput{StoreCode: "001"})
	require.ErrorIs(t, err, product.ErrVariantMissing)

	_, err = uc.SetStock(ctx, tenant, p.SKU, "VAR-1", product.SetStockInput{
		StoreCode: "001", Quantity: stock.Quantity{Sellable: -1},
	})
	require.ErrorIs(t, err, product.ErrInvalidInput)
}

func TestSetStock_RacingWritersAllLand(t *testing.T) {
	uc, p := setup(t)
	ctx := context.Background()

	stores := []string{"010", "011", "012"}
	var wg sync.WaitGroup
	for _, code := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.SetStock(ctx, tenant, p.SKU, "VAR-1", product.SetStockInput{
				StoreCode: code, Quantity: stock.Quantity{Sellable: 1},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := uc.Get(ctx, tenant, p.SKU)
	require.NoError(t, err)
	for _, code := range stores {
		_, ok := got.Bucket("VAR-1", code)
		assert.True(t, ok, code)
	}
}
