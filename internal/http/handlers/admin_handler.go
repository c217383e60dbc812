package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/repos"
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Orders    *repos.OrderRepo
	Reviews   *services.ReviewService
	Downloads *services.DownloadService
	Catalog   *services.CatalogService
	Prods     *repos.ProductRepo
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, orders)
}

func (h *AdminHandler) FlaggedReviews(c *fiber.Ctx) error {
	rvs, err := h.Reviews.Reviews.ListFlagged(c.QueryInt("limit", 100))
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, rvs)
}

type moderateBody struct {
	Decision string `json:"decision"` // PUBLISHED | REMOVED
}

func (h *AdminHandler) ModerateReview(c *fiber.Ctx) error {
	rid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid review id", nil)
	}
	var body moderateBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	if err := h.Reviews.Moderate(rid, body.Decision); err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "review.moderate", map[string]any{"review_id": rid, "decision": body.Decision})
	return ok(c, fiber.Map{"id": rid, "status": body.Decision})
}

func (h *AdminHandler) RevokeToken(c *fiber.Ctx) error {
	tid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid token id", nil)
	}
	if err := h.Downloads.Revoke(tid); err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "token.revoke", map[string]any{"token_id": tid})
	return ok(c, fiber.Map{"revoked": tid})
}

// SuspendPlan pulls a plan from sale without touching existing purchases.
func (h *AdminHandler) SuspendPlan(c *fiber.Ctx) error {
	pid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}
	if err := h.Prods.SetStatus(pid, "SUSPENDED"); err != nil {
		return bizError(c, err)
	}
	h.Catalog.Invalidate(pid)
	applog.Audit(c, "plan.suspend", map[string]any{"plan_id": pid})
	return ok(c, fiber.Map{"id": pid, "status": "SUSPENDED"})
}
