package handlers

import (
	"errors"

	"edupay/internal/clients"
	"edupay/internal/services/reconciler"
	"edupay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// WebhookHandler receives Stripe webhook deliveries.
type WebhookHandler struct {
	reconciler reconciler.Service
}

func NewWebhookHandler(reconcilerSvc reconciler.Service) *WebhookHandler {
	return &WebhookHandler{reconciler: reconcilerSvc}
}

// StripeWebhook verifies and processes one delivery. Any error after
// signature verification is surfaced as a non-2xx so Stripe redelivers.
func (h *WebhookHandler) StripeWebhook(c *fiber.Ctx) error {
	signature := c.Get("stripe-signature")
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing stripe signature")
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).SendString("missing raw body")
	}

	if err := h.reconciler.HandleEvent(c.Context(), body, signature); err != nil {
		if errors.Is(err, reconciler.ErrInvalidSignature) {
			return utils.BadRequest(c, "invalid signature")
		}
		if errors.Is(err, clients.ErrPeerService) {
			return utils.BadGateway(c, "peer service unavailable")
		}
		return utils.InternalError(c, "failed to process webhook")
	}

	return c.SendString("Webhook received")
}
