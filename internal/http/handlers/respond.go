package handlers

import (
	"database/sql"
	"errors"

	"furnibles/internal/domain"
	applog "furnibles/internal/log"

	"github.com/gofiber/fiber/v2"
)

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"ok": true, "data": data})
}

func fail(c *fiber.Ctx, status int, code, msg string, extra fiber.Map) error {
	body := fiber.Map{"ok": false, "code": code, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// bizError maps the domain error taxonomy onto HTTP statuses and
// machine-readable codes. Expected outcomes carry enough detail for the
// caller to correct the request; anything unexpected becomes an opaque 500.
func bizError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return fail(c, fiber.StatusBadRequest, "validation_error", ve.Error(), fiber.Map{"field": ve.Field})
	}
	var pu *domain.ProductUnavailableError
	if errors.As(err, &pu) {
		return fail(c, fiber.StatusConflict, "product_unavailable", pu.Error(), fiber.Map{"product_id": pu.ProductID})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return fail(c, fiber.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, domain.ErrCartEmpty):
		return fail(c, fiber.StatusBadRequest, "cart_empty", "cart is empty", nil)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return fail(c, fiber.StatusConflict, "invalid_state_transition", "order is in a terminal state", nil)
	case errors.Is(err, domain.ErrPurchaseNotVerified):
		return fail(c, fiber.StatusForbidden, "purchase_not_verified", "no completed purchase of this plan on that order", nil)
	case errors.Is(err, domain.ErrDuplicateReview):
		return fail(c, fiber.StatusConflict, "duplicate_review", "this purchase has already been reviewed", nil)
	case errors.Is(err, domain.ErrDuplicateResponse):
		return fail(c, fiber.StatusConflict, "duplicate_response", "this review already has a seller response", nil)
	case errors.Is(err, domain.ErrReviewNotPublished):
		return fail(c, fiber.StatusConflict, "review_not_published", "responses are only allowed on published reviews", nil)
	case errors.Is(err, domain.ErrNotSellerOfRecord):
		return fail(c, fiber.StatusForbidden, "not_seller_of_record", "only the plan's seller may respond", nil)
	case errors.Is(err, domain.ErrTokenNotFound):
		return fail(c, fiber.StatusNotFound, "token_not_found", "download token not found", nil)
	case errors.Is(err, domain.ErrTokenRevoked):
		return fail(c, fiber.StatusForbidden, "token_revoked", "download token was revoked; contact support", nil)
	case errors.Is(err, domain.ErrTokenExpired):
		return fail(c, fiber.StatusGone, "token_expired", "download token expired; re-purchase to download again", nil)
	case errors.Is(err, domain.ErrDownloadLimitExceeded):
		return fail(c, fiber.StatusGone, "download_limit_exceeded", "download limit reached; contact support", nil)
	}

	applog.Error(c, "server.error", err, nil)
	return fail(c, fiber.StatusInternalServerError, "internal", "something went wrong, please try again", nil)
}
