package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	authuc "github.com/riolentius/retail-backoffice/internal/usecase/auth"
)

type LoginHandler struct {
	uc *authuc.EmployeeLoginUsecase
}

func NewLoginHandler(uc *authuc.EmployeeLoginUsecase) *LoginHandler {
	return &LoginHandler{uc: uc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) Handle(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	res, err := h.uc.Execute(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, authuc.ErrInvalidCredentials) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if errors.Is(err, authuc.ErrInactiveEmployee) {
		return fiber.NewError(fiber.StatusForbidden, "employee inactive")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	return c.JSON(res)
}
