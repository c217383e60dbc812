package handlers

import (
	"furnibles/internal/domain"
	applog "furnibles/internal/log"
	"furnibles/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequireUser enforces a logged-in session.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "login required", nil)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "login required", nil)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireRole enforces a logged-in session with one of the given roles.
func RequireRole(auth *services.AuthService, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "login required", nil)
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return fail(c, fiber.StatusUnauthorized, "unauthenticated", "login required", nil)
		}
		for _, r := range roles {
			if u.Role == r {
				c.Locals("user", u)
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"user_id": u.ID, "need": roles})
		return fail(c, fiber.StatusForbidden, "forbidden", "access denied", nil)
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
