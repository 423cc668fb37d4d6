package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/riolentius/retail-backoffice/internal/repository/postgres"
	"github.com/riolentius/retail-backoffice/internal/repository/postgres/testutil"
	"github.com/riolentius/retail-backoffice/internal/session"
	"github.com/riolentius/retail-backoffice/internal/usecase/discount"
	"github.com/riolentius/retail-backoffice/internal/usecase/order"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
	trxuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

const tenant = "tenant-pg"

type StoreSuite struct {
	suite.Suite
	ctx      context.Context
	pool     *pgxpool.Pool
	products *postgres.ProductStoreAdapter
	txs      *postgres.TransactionStoreAdapter
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pool = testutil.MustOpenDB(s.T())
	s.products = postgres.NewProductStoreAdapter(postgres.NewProductRepo(s.pool))
	s.txs = postgres.NewTransactionStoreAdapter(postgres.NewTransactionRepo(s.pool))
}

func (s *StoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *StoreSuite) SetupTest() {
	testutil.TruncateAll(s.T(), s.pool)
	testutil.MustInsertProduct(s.T(), s.pool, tenant, "SKU-1", "VAR-1", 5, "001", "002")
}

func (s *StoreSuite) bucket(store string) stock.Quantity {
	p, err := s.products.FetchByID(s.ctx, tenant, "SKU-1")
	s.Require().NoError(err)
	q, ok := p.Bucket("VAR-1", store)
	s.Require().True(ok)
	return q
}

func (s *StoreSuite) TestProduct_CompareAndSwap() {
	p, err := s.products.FetchByID(s.ctx, tenant, "SKU-1")
	s.Require().NoError(err)
	s.Equal(int64(1), p.Version)

	p.Name = "renamed"
	out, err := s.products.Update(s.ctx, tenant, "SKU-1", *p)
	s.Require().NoError(err)
	s.Equal(int64(2), out.Version)
	s.Equal("renamed", out.Name)

	_, err = s.products.Update(s.ctx, tenant, "SKU-1", *p)
	s.Require().ErrorIs(err, stock.ErrVersionConflict)

	_, err = s.products.Update(s.ctx, tenant, "SKU-404", *p)
	s.Require().ErrorIs(err, stock.ErrProductMissing)

	_, err = s.products.FetchByID(s.ctx, "other", "SKU-1")
	s.Require().ErrorIs(err, stock.ErrProductMissing)
}

func (s *StoreSuite) TestProduct_CreateAndList() {
	_, err := s.products.Create(s.ctx, tenant, stock.Product{SKU: "SKU-0", Name: "Bread"})
	s.Require().NoError(err)
	_, err = s.products.Create(s.ctx, tenant, stock.Product{SKU: "SKU-0", Name: "Bread"})
	s.Require().ErrorIs(err, stock.ErrProductExists)

	list, err := s.products.List(s.ctx, tenant, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("SKU-0", list[0].SKU)
	s.Equal([]stock.Variant{}, list[0].Variants)
}

// Scenario C against the real store.
func (s *StoreSuite) TestProcessor_ConcurrentOutsSerialize() {
	proc := stock.NewProcessor(s.products, zaptest.NewLogger(s.T()), stock.WithBackoff(time.Millisecond))
	out := stock.Intent{VariantCode: "VAR-1", ProductSKU: "SKU-1", StoreCode: "001", TransactionType: stock.TypeOut, Quantity: 1}

	results := proc.Process(s.ctx, tenant, []stock.Intent{out, out})
	s.Empty(stock.Failed(results))
	s.Equal(3.0, s.bucket("001").Sellable)
}

func (s *StoreSuite) TestTransactionUsecase_EndToEnd() {
	log := zaptest.NewLogger(s.T())
	uc := trxuc.New(s.txs, stock.NewProcessor(s.products, log), log)

	created, err := uc.Create(s.ctx, tenant, trxuc.CreateInput{
		TransactionType: trxuc.TypeIn,
		Products: []order.Order{{
			Reference:   "PG-ORDER-1",
			Origin:      order.Location{StoreCode: "001"},
			Destination: order.Location{StoreCode: "002"},
			Discount:    discount.None(),
			Products: []order.ProductPurchase{{
				ProductSKU: "SKU-1", VariantCode: "VAR-1", ProductCost: 100, Quantity: 1, Discount: discount.None(),
			}},
		}},
		Payments: []trxuc.Payment{{Method: "cash", Amount: 100}},
	})
	s.Require().NoError(err)
	s.Nil(created.Reconciliation)
	s.Equal(6.0, s.bucket("001").Sellable)

	found, err := uc.SearchByReference(s.ctx, tenant, "pg-order")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(created.ID, found[0].ID)

	updated, err := uc.UpdateOrderStatus(s.ctx, tenant, created.ID, "PG-ORDER-1", trxuc.UpdateOrderStatusInput{
		Status: order.Transit(order.ShippingInfo{Carrier: "DHL"}),
	})
	s.Require().NoError(err)
	s.Equal(created.Version+1, updated.Version)
	s.Len(updated.Products[0].StatusHistory, 2)

	jobs, err := uc.ReceivableJobs(s.ctx, tenant, "002")
	s.Require().NoError(err)
	s.Len(jobs, 1)

	_, err = s.txs.Update(s.ctx, tenant, *created)
	s.Require().ErrorIs(err, trxuc.ErrVersionConflict)

	s.Require().NoError(uc.Delete(s.ctx, tenant, created.ID))
	_, err = uc.GetByID(s.ctx, tenant, created.ID)
	s.Require().ErrorIs(err, trxuc.ErrNotFound)
}

func (s *StoreSuite) TestTransaction_ReferenceSearchEscapesWildcards() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, ref := range []string{"A_1", "AB1"} {
		_, err := s.txs.Insert(s.ctx, tenant, trxuc.Transaction{
			ID:              ref,
			TransactionType: trxuc.TypeOut,
			Products:        []order.Order{{Reference: ref}},
			OrderDate:       now,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		s.Require().NoError(err)
	}

	found, err := s.txs.FetchByReference(s.ctx, tenant, "_")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("A_1", found[0].ID)
}

func (s *StoreSuite) TestTransaction_PurgeDrafts() {
	old := time.Now().UTC().Add(-2 * time.Hour)
	for id, tt := range map[string]trxuc.Type{"draft": trxuc.TypeSaved, "sale": trxuc.TypeOut} {
		_, err := s.txs.Insert(s.ctx, tenant, trxuc.Transaction{
			ID: id, TransactionType: tt, OrderDate: old, CreatedAt: old, UpdatedAt: old,
		})
		s.Require().NoError(err)
	}

	n, err := s.txs.DeleteSavedBefore(s.ctx, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.txs.FetchByID(s.ctx, tenant, "draft")
	s.ErrorIs(err, trxuc.ErrNotFound)
	_, err = s.txs.FetchByID(s.ctx, tenant, "sale")
	s.NoError(err)
}

func (s *StoreSuite) TestEmployeeFinder() {
	id := testutil.MustInsertEmployee(s.T(), s.pool, tenant, "clerk@shop.test", "pw", "transaction:read", "bogus")
	finder := postgres.NewEmployeeFinderAdapter(postgres.NewEmployeeRepo(s.pool))

	emp, err := finder.FindByEmail(s.ctx, "Clerk@Shop.test")
	s.Require().NoError(err)
	s.Equal(id, emp.ID)
	s.Equal(tenant, emp.TenantID)
	s.True(emp.IsActive)
	s.Equal([]session.Action{session.ActionReadTransaction}, emp.Permissions)
}
