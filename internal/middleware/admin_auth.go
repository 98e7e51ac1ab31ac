package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/pkg/jwt"
)

// AdminEmailKey is the key used to store the authenticated admin's email
// in Gin context
const AdminEmailKey = "admin_email"

// AdminAuth validates the bearer token and re-checks the email against the
// allowlist, so removing an email from the allowlist revokes access even
// for tokens that have not expired yet.
func AdminAuth(jwtService *jwt.Service, cfg *config.Config, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Admin token rejected")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		if !cfg.IsAdminEmail(claims.Email) {
			logger.WithField("email", claims.Email).Warn("Token for email no longer on allowlist")
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Access revoked",
			})
			c.Abort()
			return
		}

		c.Set(AdminEmailKey, claims.Email)
		c.Next()
	}
}

// GetAdminEmail retrieves the authenticated admin's email from Gin context
func GetAdminEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(AdminEmailKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok
}
