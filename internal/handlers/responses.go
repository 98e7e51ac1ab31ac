package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
)

// respondError maps domain errors onto HTTP status codes and a uniform
// error body. Unknown errors are logged and returned as 500 without
// leaking internals.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
		return
	}

	var priceErr *models.PriceMismatchError
	if errors.As(err, &priceErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "price_mismatch",
			"message":  priceErr.Error(),
			"expected": priceErr.Expected,
		})
		return
	}

	var dupErr *models.DuplicateBookingError
	if errors.As(err, &dupErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":             "duplicate_booking",
			"message":           dupErr.Error(),
			"existingBookingId": dupErr.ExistingBookingID,
		})
		return
	}

	var rateErr *models.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", rateErr.RetryAfter.UTC().Format(http.TimeFormat))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "rate_limited",
			"message":    rateErr.Message,
			"retryAfter": rateErr.RetryAfter,
		})
		return
	}

	var notFoundErr *models.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": notFoundErr.Error(),
		})
		return
	}

	var authErr *models.AuthorizationError
	if errors.As(err, &authErr) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": authErr.Reason,
		})
		return
	}

	var webhookErr *models.WebhookAuthError
	if errors.As(err, &webhookErr) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_webhook_secret",
			"message": webhookErr.Error(),
		})
		return
	}

	var providerErr *models.ProviderError
	if errors.As(err, &providerErr) {
		logger.WithError(err).WithField("provider", providerErr.Provider).
			Error("Payment provider error")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "provider_error",
			"message": "payment provider is unavailable, please try again",
		})
		return
	}

	logger.WithError(err).Error("Unhandled error in request")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "something went wrong",
	})
}
