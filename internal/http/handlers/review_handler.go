package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// Create posts a review for a purchased plan. The plan id comes from the
// route, the order reference from the body.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	pid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}

	var in services.CreateReviewInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	in.BuyerID = u.ID
	in.ProductID = pid

	rv, err := h.Reviews.Create(in)
	if err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "review.create", map[string]any{"review_id": rv.ID, "status": rv.Status, "rating": rv.Rating})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": rv})
}

type voteBody struct {
	Vote string `json:"vote"`
}

func (h *ReviewHandler) Vote(c *fiber.Ctx) error {
	u := currentUser(c)
	rid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid review id", nil)
	}
	var body voteBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	helpful, notHelpful, err := h.Reviews.Vote(rid, u.ID, body.Vote)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"helpful_count": helpful, "not_helpful_count": notHelpful})
}

type responseBody struct {
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Respond(c *fiber.Ctx) error {
	u := currentUser(c)
	rid, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid review id", nil)
	}
	var body responseBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	resp, err := h.Reviews.Respond(rid, u.ID, body.Comment)
	if err != nil {
		return bizError(c, err)
	}
	applog.Audit(c, "review.respond", map[string]any{"review_id": rid, "seller_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "data": resp})
}
