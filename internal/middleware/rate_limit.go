package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
	"github.com/vistalens/booking-backend/internal/utils"
)

// RateLimit enforces the per-IP request limit for a scope. The check and
// the record are DB-backed so limits hold across replicas.
func RateLimit(rateLimitService *services.RateLimitService, scope string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.GetRealIP(c)

		if err := rateLimitService.Check(scope, ip); err != nil {
			var rateErr *models.RateLimitError
			if errors.As(err, &rateErr) {
				logger.WithFields(logrus.Fields{
					"ip":    ip,
					"scope": scope,
				}).Warn("Rate limit exceeded")
				c.Header("Retry-After", rateErr.RetryAfter.UTC().Format(http.TimeFormat))
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":      "rate_limited",
					"message":    rateErr.Message,
					"retryAfter": rateErr.RetryAfter,
				})
				c.Abort()
				return
			}

			// The limiter failing open is preferable to blocking bookings
			logger.WithError(err).Error("Rate limit check failed, allowing request")
		}

		if err := rateLimitService.Record(scope, ip); err != nil {
			logger.WithError(err).Error("Failed to record request for rate limiting")
		}

		c.Next()
	}
}
