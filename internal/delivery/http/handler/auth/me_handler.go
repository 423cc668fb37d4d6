package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/riolentius/retail-backoffice/internal/session"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

func (h *MeHandler) Handle(c *fiber.Ctx) error {
	sess, err := session.From(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return c.JSON(fiber.Map{
		"employeeId":  sess.EmployeeID,
		"tenantId":    sess.TenantID,
		"permissions": session.Strings(sess.Permissions),
	})
}
