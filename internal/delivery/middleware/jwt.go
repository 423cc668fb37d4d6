package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/riolentius/retail-backoffice/internal/session"
	authuc "github.com/riolentius/retail-backoffice/internal/usecase/auth"
)

const sessionLocal = "session"

type JWTMiddleware struct {
	secret []byte
}

func NewJWTMiddleware(secret string) *JWTMiddleware {
	return &JWTMiddleware{secret: []byte(secret)}
}

// Protect validates the bearer token and puts the employee session on the
// request: in Locals and in the user context handed to usecases.
func (m *JWTMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenStr := parts[1]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token signing method")
			}
			return m.secret, nil
		})

		if err != nil || token == nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}

		if typ, _ := claims["typ"].(string); typ != authuc.TokenType {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token type")
		}

		sess := session.Session{}
		sess.EmployeeID, _ = claims["sub"].(string)
		sess.TenantID, _ = claims["tid"].(string)
		if sess.TenantID == "" || sess.EmployeeID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no tenant")
		}
		if raw, ok := claims["perm"].([]any); ok {
			perms := make([]string, 0, len(raw))
			for _, p := range raw {
				if s, ok := p.(string); ok {
					perms = append(perms, s)
				}
			}
			sess.Permissions = session.ParseActions(perms)
		}

		c.Locals(sessionLocal, sess)
		c.SetUserContext(session.With(c.UserContext(), sess))

		return c.Next()
	}
}

// Require rejects sessions lacking action.
func Require(action session.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := c.Locals(sessionLocal).(session.Session)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		if !sess.Has(action) {
			return fiber.NewError(fiber.StatusForbidden, "missing permission "+string(action))
		}
		return c.Next()
	}
}
