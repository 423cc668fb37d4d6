package payment

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/riolentius/retail-backoffice/internal/session"
	txuc "github.com/riolentius/retail-backoffice/internal/usecase/transaction"
)

type Handler struct {
	uc *txuc.Usecase
}

func New(uc *txuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) CreateForTransaction(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req txuc.AddPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
	}

	p, state, err := h.uc.AddPayment(c.UserContext(), sess.TenantID, c.Params("id"), req)
	if err != nil {
		return writeErr(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"payment":     p,
		"transaction": state,
	})
}

func (h *Handler) ListForTransaction(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	items, err := h.uc.ListPayments(c.UserContext(), sess.TenantID, c.Params("id"))
	if err != nil {
		return writeErr(c, err)
	}

	return c.JSON(fiber.Map{"items": items})
}

func writeErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, txuc.ErrInvalidInput):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, txuc.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, txuc.ErrVersionConflict):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
}
