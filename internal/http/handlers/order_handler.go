package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/repos"
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Order  *services.OrderService
	Tokens *repos.TokenRepo
}

// Place converts the current buyer's cart into a PENDING order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	u := currentUser(c)
	order, err := h.Order.Checkout(u.ID)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"user_id": u.ID, "error": err.Error()})
		return bizError(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": order})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid order id", nil)
	}
	o, items, err := h.Order.Get(oid)
	if err != nil {
		return bizError(c, err)
	}
	// Ownership check; admins may view any order
	if o.BuyerID != u.ID && u.Role != "ADMIN" {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid, "user_id": u.ID})
		return fail(c, fiber.StatusNotFound, "not_found", "not found", nil)
	}
	tokens, err := h.Tokens.ByOrder(oid)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"order": o, "items": items, "downloads": tokens})
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Order.History(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, orders)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid order id", nil)
	}
	buyerScope := u.ID
	if u.Role == "ADMIN" {
		buyerScope = "" // admins may cancel any non-terminal order
	}
	if err := h.Order.Cancel(oid, buyerScope); err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": oid, "by": u.ID})
	return ok(c, fiber.Map{"cancelled": oid})
}
