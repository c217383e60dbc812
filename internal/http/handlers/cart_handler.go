package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type addCartBody struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := currentUser(c)
	var body addCartBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	pid, valid := validate.ID(body.ProductID)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid product_id", nil)
	}
	if body.Qty < 1 {
		body.Qty = 1
	}
	if err := h.Cart.Add(u.ID, pid, body.Qty); err != nil {
		return bizError(c, err)
	}
	applog.Info(c, "cart.add", map[string]any{"user_id": u.ID, "product_id": pid, "qty": body.Qty})
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, cv)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, cv)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	u := currentUser(c)
	pid, valid := validate.ID(c.Params("productId"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid product id", nil)
	}
	if err := h.Cart.Remove(u.ID, pid); err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"removed": pid})
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Cart.Clear(u.ID); err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"cleared": true})
}
