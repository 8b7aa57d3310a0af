package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/gateway"
	"github.com/ayoub195/safisaana/internal/metrics"
	"github.com/ayoub195/safisaana/internal/models"
	"github.com/ayoub195/safisaana/internal/service"
)

type WebhookHandler struct {
	engine *service.TransitionEngine
	secret string
	logger *zap.Logger
}

func NewWebhookHandler(engine *service.TransitionEngine, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		engine: engine,
		secret: secret,
		logger: logger,
	}
}

// HandleIntaSend handles POST /api/v1/webhooks/intasend.
//
// Response policy: 401 for a bad signature, 400 for a malformed body (neither
// is fixable by a retry); 200 for Applied, Ignored, Rejected and unknown
// payment ids, so the gateway stops redelivering what cannot change; 500 only
// for store failures, where a retry is safe because the engine is idempotent.
func (h *WebhookHandler) HandleIntaSend(c *gin.Context) {
	// The signature is computed over the raw received bytes.
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unreadable body"})
		return
	}

	signature := c.GetHeader(gateway.SignatureHeader)
	if !service.VerifyWebhookSignature(body, signature, h.secret) {
		metrics.WebhookDeliveries.WithLabelValues("invalid_signature").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid signature"})
		return
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookDeliveries.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Malformed payload"})
		return
	}
	if err := event.Validate(); err != nil {
		metrics.WebhookDeliveries.WithLabelValues("malformed").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.engine.Apply(c.Request.Context(), event.PaymentID, event.Status, event.TransactionID, event.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrRecordNotFound) {
			// Integrity alarm: the gateway references a record we never
			// created. Acknowledge so it stops retrying what cannot resolve.
			metrics.WebhookDeliveries.WithLabelValues("not_found").Inc()
			h.logger.Error("webhook references unknown payment",
				zap.String("payment_id", event.PaymentID),
				zap.String("status", string(event.Status)))
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		h.logger.Error("webhook processing failed",
			zap.String("payment_id", event.PaymentID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Webhook processing failed"})
		return
	}

	metrics.WebhookDeliveries.WithLabelValues(string(result.Outcome)).Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
