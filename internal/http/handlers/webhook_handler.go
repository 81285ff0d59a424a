package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/services"
)

// maxWebhookBody caps how much of a webhook body is read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment processor events.
type WebhookHandler struct {
	Webhooks services.WebhookService
}

// POST /api/stripe/webhook. The signature is computed over the exact raw body.
func (h WebhookHandler) Stripe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusBadRequest, "Webhook Error: could not read body")
		return
	}

	err = h.Webhooks.Handle(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"received": true})
	case domain.IsSignature(err):
		_ = c.Error(err)
		c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
	default:
		RespondError(c, http.StatusInternalServerError, "webhook handling failed", err)
	}
}
