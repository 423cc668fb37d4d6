package transaction

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/riolentius/retail-backoffice/internal/session"
	"github.com/riolentius/retail-backoffice/internal/usecase/discount"
	txuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

type Handler struct {
	uc *txuc.Usecase
}

func New(uc *txuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

// Create answers 201, or 202 when the transaction was stored but some of its
// stock movements still need reconciliation.
func (h *Handler) Create(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var in txuc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		if errors.Is(err, discount.ErrMalformed) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Salesperson = sess.EmployeeID

	out, err := h.uc.Create(c.UserContext(), sess.TenantID, in)
	return writeStored(c, out, err, fiber.StatusCreated)
}

func (h *Handler) GetByID(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.GetByID(c.UserContext(), sess.TenantID, c.Params("id"))
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) Search(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.SearchByReference(c.UserContext(), sess.TenantID, c.Query("ref"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func (h *Handler) ListSaved(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.ListSaved(c.UserContext(), sess.TenantID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	if err := h.uc.Delete(c.UserContext(), sess.TenantID, c.Params("id")); err != nil {
		return mapErr(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) UpdateOrderStatus(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var in txuc.UpdateOrderStatusInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.UpdateOrderStatus(c.UserContext(), sess.TenantID, c.Params("id"), c.Params("ref"), in)
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) UpdateProductStatus(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var in txuc.UpdateProductStatusInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.UpdateProductStatus(c.UserContext(), sess.TenantID,
		c.Params("id"), c.Params("ref"), c.Params("purchase"), c.Params("instance"), in)
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) Reconcile(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.Reconcile(c.UserContext(), sess.TenantID, c.Params("id"))
	return writeStored(c, out, err, fiber.StatusOK)
}

func (h *Handler) PaymentState(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.GetByID(c.UserContext(), sess.TenantID, c.Params("id"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(txuc.NewPaymentState(*out))
}

func (h *Handler) Deliverables(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.DeliverableJobs(c.UserContext(), sess.TenantID, c.Params("code"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func (h *Handler) Receivables(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.ReceivableJobs(c.UserContext(), sess.TenantID, c.Params("code"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func writeOne(c *fiber.Ctx, out *txuc.Transaction, err error, okStatus int) error {
	if err != nil {
		return mapErr(err)
	}
	return c.Status(okStatus).JSON(out)
}

// writeStored is writeOne for operations that may persist the transaction and
// still report failed stock intents.
func writeStored(c *fiber.Ctx, out *txuc.Transaction, err error, okStatus int) error {
	var recErr *txuc.ReconciliationError
	if errors.As(err, &recErr) && out != nil {
		return c.Status(fiber.StatusAccepted).JSON(out)
	}
	return writeOne(c, out, err, okStatus)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, session.ErrMissing):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, txuc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, txuc.ErrValidation):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, txuc.ErrNotFound), errors.Is(err, txuc.ErrOrderMissing):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, txuc.ErrVersionConflict), errors.Is(err, txuc.ErrReconcileInProgress):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
