package handlers

import (
	"furnibles/internal/repos"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type FavoriteHandler struct {
	Favs *repos.FavoriteRepo
}

type favBody struct {
	ProductID string `json:"product_id"`
}

func (h *FavoriteHandler) Save(c *fiber.Ctx) error {
	u := currentUser(c)
	var body favBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed JSON body", nil)
	}
	pid, valid := validate.ID(body.ProductID)
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid product_id", nil)
	}
	if err := h.Favs.Save(u.ID, pid); err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"saved": pid})
}

func (h *FavoriteHandler) Unsave(c *fiber.Ctx) error {
	u := currentUser(c)
	pid, valid := validate.ID(c.Params("productId"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid product id", nil)
	}
	if err := h.Favs.Unsave(u.ID, pid); err != nil {
		return bizError(c, err)
	}
	return ok(c, fiber.Map{"removed": pid})
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	plans, err := h.Favs.List(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, plans)
}
