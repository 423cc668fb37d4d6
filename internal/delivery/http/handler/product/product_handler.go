package product

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/riolentius/retail-backoffice/internal/session"
	productuc "github.com/riolentius/retail-backoffice/internal/usecase/product"
	"github.com/riolentius/retail-backoffice/internal/usecase/stock"
)

type Handler struct {
	uc *productuc.Usecase
}

func New(uc *productuc.Usecase) *Handler {
	return &Handler{uc: uc}
}

func (h *Handler) Create(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var req productuc.CreateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.Create(c.UserContext(), sess.TenantID, req)
	return writeOne(c, out, err, fiber.StatusCreated)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}
	out, err := h.uc.Get(c.UserContext(), sess.TenantID, c.Params("sku"))
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) List(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	out, err := h.uc.List(c.UserContext(), sess.TenantID, limit, offset)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(fiber.Map{"items": out})
}

func (h *Handler) Update(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var req productuc.UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.Update(c.UserContext(), sess.TenantID, c.Params("sku"), req)
	return writeOne(c, out, err, fiber.StatusOK)
}

func (h *Handler) SetStock(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return mapErr(err)
	}

	var req productuc.SetStockInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	out, err := h.uc.SetStock(c.UserContext(), sess.TenantID, c.Params("sku"), c.Params("variant"), req)
	return writeOne(c, out, err, fiber.StatusOK)
}

func writeOne(c *fiber.Ctx, out *stock.Product, err error, okStatus int) error {
	if err != nil {
		return mapErr(err)
	}
	return c.Status(okStatus).JSON(out)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, session.ErrMissing):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, productuc.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrProductMissing), errors.Is(err, productuc.ErrVariantMissing):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, stock.ErrProductExists), errors.Is(err, stock.ErrVersionConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
