package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
)

// WebhookHandler handles asynchronous provider callbacks
type WebhookHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(bookingService *services.BookingService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// HandleTurinvoice processes a Turinvoice order state webhook
// @Summary Turinvoice webhook
// @Description Settles asynchronous payments. Replays and unknown orders are acknowledged; only a bad secret is rejected.
// @Tags Webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Malformed payload"
// @Failure 401 {object} map[string]interface{} "Invalid webhook secret"
// @Router /payment/webhook/turinvoice [post]
func (h *WebhookHandler) HandleTurinvoice(c *gin.Context) {
	// The raw body goes into the audit trail verbatim
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	var payload models.TurinvoiceWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		h.logger.WithError(err).Warn("Malformed Turinvoice webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.bookingService.HandleTurinvoiceWebhook(&payload, string(rawBody), requestMeta(c)); err != nil {
		var webhookErr *models.WebhookAuthError
		if errors.As(err, &webhookErr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
			return
		}

		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}

		// Server-side failure: return 500 so the provider retries
		h.logger.WithError(err).WithField("id_order", payload.ID).
			Error("Webhook processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "webhook processed"})
}
