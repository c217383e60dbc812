package handlers

import (
	applog "furnibles/internal/log"
	"furnibles/internal/services"
	"furnibles/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type DownloadHandler struct {
	Downloads *services.DownloadService
	Store     storage.Store
}

// Fetch validates the presented token, spends one download and answers
// with a signed URL for the plan file. The token string is the only
// credential; distinct refusal reasons get distinct codes because the
// remediation differs.
func (h *DownloadHandler) Fetch(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return fail(c, fiber.StatusBadRequest, "validation_error", "missing token", nil)
	}

	fileRef, err := h.Downloads.CheckAndConsume(token, c.IP(), string(c.Request().Header.UserAgent()))
	if err != nil {
		applog.Security(c, "download.denied", map[string]any{"reason": err.Error()})
		return bizError(c, err)
	}

	url, err := h.Store.SignURL(fileRef)
	if err != nil {
		// storage unreachable: retryable, the download was still consumed
		applog.Error(c, "download.sign.fail", err, nil)
		return fail(c, fiber.StatusBadGateway, "storage_unavailable", "file storage unavailable, retry shortly", nil)
	}

	applog.Audit(c, "download.ok", map[string]any{"file_ref": fileRef})
	return ok(c, fiber.Map{"url": url})
}

// List shows the current buyer's entitlements.
func (h *DownloadHandler) List(c *fiber.Ctx) error {
	u := currentUser(c)
	tokens, err := h.Downloads.ListForBuyer(u.ID)
	if err != nil {
		return bizError(c, err)
	}
	return ok(c, tokens)
}
