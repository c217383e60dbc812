package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SellerHandler struct {
	Seller  *services.SellerService
	Catalog *services.CatalogService
}

func (h *SellerHandler) CreatePlan(c *fiber.Ctx) error {
	u := currentUser(c)
	var in services.PlanInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	in.SellerID = u.ID
	p, err := h.Seller.CreatePlan(in)
	if err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "plan.create", map[string]any{"plan_id": p.ID, "seller_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": p})
}

func (h *SellerHandler) UpdatePlan(c *fiber.Ctx) error {
	u := currentUser(c)
	pid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}
	var in services.PlanInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	in.SellerID = u.ID
	p, err := h.Seller.UpdatePlan(pid, in)
	if err != nil {
		return bizError(c, err)
	}
	h.Catalog.Invalidate(pid)
	return ok(c, p)
}

type statusBody struct {
	Status string `json:"status"`
}

func (h *SellerHandler) SetPlanStatus(c *fiber.Ctx) error {
	u := currentUser(c)
	pid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}
	var body statusBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	if err := h.Seller.SetPlanStatus(pid, u.ID, body.Status); err != nil {
		return bizError(c, err)
	}
	h.Catalog.Invalidate(pid)
	applog.Audit(c, "plan.status", map[string]any{"plan_id": pid, "status": body.Status})
	return ok(c, fiber.Map{"id": pid, "status": body.Status})
}

func (h *SellerHandler) ListPlans(c *fiber.Ctx) error {
	u := currentUser(c)
	plans, err := h.Seller.ListPlans(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, plans)
}

func (h *SellerHandler) Sales(c *fiber.Ctx) error {
	u := currentUser(c)
	sales, err := h.Seller.Sales(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, sales)
}
