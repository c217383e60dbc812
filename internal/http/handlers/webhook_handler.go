package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"furnibles/internal/domain"
	applog "furnibles/internal/log"
	"furnibles/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives payment gateway events. Successful signature
// verification is the precondition for touching the order lifecycle at all.
type WebhookHandler struct {
	Order  *services.OrderService
	Secret string
}

// verify checks the HMAC-SHA256 signature the gateway computes over the raw
// request body.
func (h *WebhookHandler) verify(body []byte, sigHex string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.Secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), sig)
}

// Payment handles at-least-once gateway deliveries. Business-level no-ops
// (duplicate events, late events for settled orders) are acknowledged with
// 200 so the gateway stops retrying; only malformed or unverifiable
// requests are rejected.
func (h *WebhookHandler) Payment(c *fiber.Ctx) error {
	body := c.Body()
	if !h.verify(body, c.Get("X-Webhook-Signature")) {
		applog.Security(c, "webhook.signature.fail", nil)
		return fail(c, fiber.StatusUnauthorized, "bad_signature", "signature verification failed", nil)
	}

	var evt services.PaymentEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fail(c, fiber.StatusBadRequest, "bad_body", "malformed event payload", nil)
	}

	err := h.Order.HandlePaymentEvent(evt)
	switch {
	case err == nil:
		applog.Info(c, "webhook.payment", map[string]any{"event_id": evt.EventID, "type": evt.Type, "order_id": evt.OrderID})
		return ok(c, fiber.Map{"received": evt.EventID})
	case errors.Is(err, domain.ErrInvalidStateTransition):
		// settled order; retrying will never succeed, acknowledge it
		applog.Security(c, "webhook.invalid_transition", map[string]any{"event_id": evt.EventID, "order_id": evt.OrderID})
		return c.JSON(fiber.Map{"ok": false, "code": "invalid_state_transition", "received": evt.EventID})
	default:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return fail(c, fiber.StatusBadRequest, "validation_error", ve.Error(), nil)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "not_found", "unknown order reference", nil)
		}
		// storage failure: let the gateway retry
		applog.Error(c, "webhook.payment.fail", err, map[string]any{"event_id": evt.EventID})
		return fail(c, fiber.StatusInternalServerError, "internal", "temporary failure, retry", nil)
	}
}
