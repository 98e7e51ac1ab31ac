package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
	"github.com/vistalens/booking-backend/internal/utils"
)

// PaymentHandler handles the public payment endpoints
type PaymentHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(bookingService *services.BookingService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// requestMeta captures client metadata for the payment audit trail
func requestMeta(c *gin.Context) services.RequestMeta {
	userAgent := utils.GetUserAgent(c)
	device := utils.ParseUserAgent(userAgent)

	return services.RequestMeta{
		IP:         utils.GetRealIP(c),
		UserAgent:  userAgent,
		DeviceType: device.DeviceType,
	}
}

// InitializeCardPayment charges the deposit synchronously through Iyzico
// @Summary Initialize card payment
// @Description Charges the deposit with the submitted card. A decline returns 200 with success=false.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.InitializeCardPaymentRequest true "Card payment request"
// @Success 200 {object} models.CardPaymentResponse
// @Failure 400 {object} map[string]interface{} "Validation error or deposit mismatch"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 502 {object} map[string]interface{} "Gateway unreachable"
// @Router /payment/initialize [post]
func (h *PaymentHandler) InitializeCardPayment(c *gin.Context) {
	var req models.InitializeCardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	response, err := h.bookingService.InitializeCardPayment(&req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Declines also arrive here with Success=false; the frontend shows
	// the gateway message
	c.JSON(http.StatusOK, response)
}

// InitializeRedirectPayment opens a Turinvoice hosted order
// @Summary Initialize redirect payment
// @Description Creates a Turinvoice order and returns the hosted payment URL
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body models.InitializeRedirectPaymentRequest true "Redirect payment request"
// @Success 200 {object} models.RedirectPaymentResponse
// @Failure 400 {object} map[string]interface{} "Validation error or deposit mismatch"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 502 {object} map[string]interface{} "Gateway unreachable"
// @Router /payment/initialize/turinvoice [post]
func (h *PaymentHandler) InitializeRedirectPayment(c *gin.Context) {
	var req models.InitializeRedirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	response, err := h.bookingService.InitializeRedirectPayment(&req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPaymentStatus returns a payment by conversation id
// @Summary Get payment status
// @Description Polling endpoint the frontend uses while waiting for an async payment to settle
// @Tags Payment
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Payment not found"
// @Router /payment/status/{conversation_id} [get]
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	payment, err := h.bookingService.GetPaymentStatus(c.Param("conversation_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversationId": payment.ConversationID,
		"status":         payment.Status,
		"provider":       payment.Provider,
		"amount":         payment.Amount,
		"currency":       payment.Currency,
		"bookingId":      payment.BookingID,
	})
}

// parseIntDefault parses an integer query parameter with a fallback
func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
