package handlers

import (
	"path/filepath"
	"strconv"
	"strings"

	applog "furnibles/internal/log"
	"furnibles/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// FileHandler serves locally stored plan files against the signed URLs the
// download guard hands out. Object-store deployments never hit this route;
// their pre-signed URLs point at the store directly.
type FileHandler struct {
	Store *storage.LocalStore
	Dir   string
}

func (h *FileHandler) Serve(c *fiber.Ctx) error {
	ref := c.Params("*")
	exp, _ := strconv.ParseInt(c.Query("exp"), 10, 64)
	if !h.Store.Verify(ref, exp, c.Query("sig")) {
		applog.Security(c, "files.signature.fail", map[string]any{"ref": ref})
		return fail(c, fiber.StatusForbidden, "bad_signature", "invalid or expired link", nil)
	}
	// Block traversal out of the files dir
	clean := filepath.Clean(ref)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		applog.Security(c, "files.traversal.block", map[string]any{"ref": ref})
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendFile(filepath.Join(h.Dir, clean), true)
}
