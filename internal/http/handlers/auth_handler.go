package handlers

import (
	"errors"

	applog "furnibles/internal/log"
	"furnibles/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

type credsBody struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body credsBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	sid := ensureSID(c)
	u, err := h.Auth.Login(sid, body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "login.fail", map[string]any{"email": body.Email})
			return fail(c, fiber.StatusUnauthorized, "bad_credentials", "invalid email or password", nil)
		}
		return bizError(c, err)
	}
	applog.Audit(c, "login.ok", map[string]any{"user_id": u.ID})
	return ok(c, fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body credsBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	sid := ensureSID(c)
	u, err := h.Auth.Register(sid, body.Email, body.Name, body.Password, body.Role)
	if err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "register.ok", map[string]any{"user_id": u.ID, "role": u.Role})
	return ok(c, fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		_ = h.Auth.Logout(sid)
	}
	c.ClearCookie("sid")
	return ok(c, fiber.Map{"logged_out": true})
}
