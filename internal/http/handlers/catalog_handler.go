package handlers

import (
	"furnibles/internal/services"
	"furnibles/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, cats)
}

func (h *CatalogHandler) ListByCategory(c *fiber.Ctx) error {
	catID, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid category id", nil)
	}
	plans, err := h.Catalog.ListByCategory(catID, c.QueryInt("page", 1), c.QueryInt("page_size", 12))
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, plans)
}

func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}
	d, err := h.Catalog.Get(id)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, d)
}

func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q != "" {
		var valid bool
		if q, valid = validate.Q(q); !valid {
			return fail(c, fiber.StatusBadRequest, "validation_error", "invalid search query", nil)
		}
	}
	cat := c.Query("category")
	plans, err := h.Catalog.Search(q, cat, c.QueryInt("page", 1), c.QueryInt("page_size", 12))
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, plans)
}

func (h *CatalogHandler) ListReviews(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusBadRequest, "validation_error", "invalid plan id", nil)
	}
	rvs, err := h.Reviews.ListByProduct(id, c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, rvs)
}
