package app

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riolentius/retail-backoffice/internal/config"
	"github.com/riolentius/retail-backoffice/internal/db"
	httpdelivery "github.com/riolentius/retail-backoffice/internal/delivery/http"
	"github.com/riolentius/retail-backoffice/internal/repository/memory"
	"github.com/riolentius/retail-backoffice/internal/repository/postgres"
	"github.com/riolentius/retail-backoffice/internal/session"
	authuc "github.com/riolentius/retail-backoffice/internal/usecase/auth"
	productuc "github.com/riolentius/retail-backoffice/internal/usecase/product"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
	trxuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

type App struct {
	cfg  config.Config
	log  *zap.Logger
	f    *fiber.App
	pool *pgxpool.Pool
	trx  *trxuc.Usecase
}

type productStore interface {
	stock.ProductStore
	productuc.ProductStore
}

type stores struct {
	products  productStore
	txs       trxuc.Store
	employees authuc.EmployeeFinder
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	processor := stock.NewProcessor(st.products, log.Named("stock"), stock.WithMaxAttempts(cfg.StockMaxAttempts))
	a.trx = trxuc.New(st.txs, processor, log.Named("transaction"), trxuc.WithPaymentTolerance(cfg.PaymentTolerance))

	a.f = fiber.New(fiber.Config{
		AppName: "retail-backoffice",
	})

	a.f.Use(recover.New())
	a.f.Use(logger.New())

	httpdelivery.RegisterRoutes(a.f, cfg, httpdelivery.Usecases{
		Login:        authuc.NewEmployeeLoginUsecase(st.employees, cfg.JWTSecret, cfg.JWTExpiresMinutes),
		Transactions: a.trx,
		Products:     productuc.New(st.products),
	})

	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.cfg.StorageDriver == config.DriverMemory {
		a.log.Warn("using in-memory storage, data is lost on restart")
		employees := memory.NewEmployeeStore()
		if b := a.cfg.Bootstrap; b.Email != "" && b.PasswordHash != "" {
			employees.Add(authuc.Employee{
				ID:           "bootstrap",
				TenantID:     b.TenantID,
				Email:        b.Email,
				PasswordHash: b.PasswordHash,
				IsActive:     true,
				Permissions:  session.All,
			})
			a.log.Info("bootstrap employee registered", zap.String("tenant_id", b.TenantID))
		}
		return stores{
			products:  memory.NewProductStore(),
			txs:       memory.NewTransactionStore(),
			employees: employees,
		}, nil
	}

	pool, err := db.NewPool(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	a.pool = pool
	return stores{
		products:  postgres.NewProductStoreAdapter(postgres.NewProductRepo(pool)),
		txs:       postgres.NewTransactionStoreAdapter(postgres.NewTransactionRepo(pool)),
		employees: postgres.NewEmployeeFinderAdapter(postgres.NewEmployeeRepo(pool)),
	}, nil
}

// Run serves HTTP and sweeps stale drafts until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http listening", zap.String("port", a.cfg.Port))
		return a.f.Listen(":" + a.cfg.Port)
	})

	g.Go(func() error {
		SweepDrafts(ctx, a.trx, a.cfg.DraftSweepInterval, a.cfg.DraftRetention, a.log)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := a.f.ShutdownWithContext(shutdownCtx)
		if a.pool != nil {
			a.pool.Close()
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type draftPurger interface {
	PurgeStaleDrafts(ctx context.Context, retention time.Duration) (int64, error)
}

// SweepDrafts deletes saved drafts older than retention every interval.
func SweepDrafts(ctx context.Context, p draftPurger, interval, retention time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.PurgeStaleDrafts(ctx, retention); err != nil {
				log.Error("draft sweep failed", zap.Error(err))
			}
		}
	}
}
