package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riolentius/retail-backoffice/internal/config"
	authhandler "github.com/riolentius/retail-backoffice/internal/delivery/http/handler/auth"
	paymenthandler "github.com/riolentius/retail-backoffice/internal/delivery/http/handler/payment"
	producthandler "github.com/riolentius/retail-backoffice/internal/delivery/http/handler/product"
	trxhandler "github.com/riolentius/retail-backoffice/internal/delivery/http/handler/transaction"
	"github.com/riolentius/retail-backoffice/internal/delivery/middleware"
	"github.com/riolentius/retail-backoffice/internal/session"
	authuc "github.com/riolentius/retail-backoffice/internal/usecase/auth"
	productuc "github.com/riolentius/retail-backoffice/internal/usecase/product"
	trxuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

// Usecases are the wired application services the routes dispatch to.
type Usecases struct {
	Login        *authuc.EmployeeLoginUsecase
	Transactions *trxuc.Usecase
	Products     *productuc.Usecase
}

func RegisterRoutes(app *fiber.App, cfg config.Config, uc Usecases) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api")

	// Public route
	loginHandler := authhandler.NewLoginHandler(uc.Login)
	api.Post("/auth/login", loginHandler.Handle)

	// Everything else needs an employee session
	protected := api.Group("", middleware.NewJWTMiddleware(cfg.JWTSecret).Protect())
	protected.Get("/me", authhandler.NewMeHandler().Handle)

	trxH := trxhandler.New(uc.Transactions)
	productH := producthandler.New(uc.Products)
	paymentH := paymenthandler.New(uc.Transactions)

	can := middleware.Require

	// Transaction routes
	protected.Post("/transactions", can(session.ActionCreateTransaction), trxH.Create)
	protected.Get("/transactions", can(session.ActionReadTransaction), trxH.Search)
	protected.Get("/transactions/saved", can(session.ActionReadTransaction), trxH.ListSaved)
	protected.Get("/transactions/:id", can(session.ActionReadTransaction), trxH.GetByID)
	protected.Get("/transactions/:id/payment-state", can(session.ActionReadTransaction), trxH.PaymentState)
	protected.Delete("/transactions/:id", can(session.ActionDeleteTransaction), trxH.Delete)
	protected.Post("/transactions/:id/reconcile", can(session.ActionUpdateTransaction), trxH.Reconcile)
	protected.Patch("/transactions/:id/orders/:ref/status", can(session.ActionUpdateTransaction), trxH.UpdateOrderStatus)
	protected.Patch("/transactions/:id/orders/:ref/products/:purchase/instances/:instance/status",
		can(session.ActionUpdateTransaction), trxH.UpdateProductStatus)

	// Payment routes
	protected.Post("/transactions/:id/payments", can(session.ActionUpdateTransaction), paymentH.CreateForTransaction)
	protected.Get("/transactions/:id/payments", can(session.ActionReadTransaction), paymentH.ListForTransaction)

	// Job search
	protected.Get("/stores/:code/deliverables", can(session.ActionFetchJobs), trxH.Deliverables)
	protected.Get("/stores/:code/receivables", can(session.ActionFetchJobs), trxH.Receivables)

	// Product routes
	protected.Post("/products", can(session.ActionManageProducts), productH.Create)
	protected.Get("/products", can(session.ActionReadProducts), productH.List)
	protected.Get("/products/:sku", can(session.ActionReadProducts), productH.Get)
	protected.Patch("/products/:sku", can(session.ActionManageProducts), productH.Update)
	protected.Put("/products/:sku/variants/:variant/stock", can(session.ActionManageProducts), productH.SetStock)
}
