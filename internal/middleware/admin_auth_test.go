package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/pkg/jwt"
)

func adminAuthRouter(allowedEmails []string) (*gin.Engine, *jwt.Service) {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	jwtService := jwt.NewService("test-secret", time.Hour)
	cfg := &config.Config{
		Admin: config.AdminConfig{AllowedEmails: allowedEmails},
	}

	router := gin.New()
	router.GET("/protected", AdminAuth(jwtService, cfg, logger), func(c *gin.Context) {
		email, _ := GetAdminEmail(c)
		c.JSON(http.StatusOK, gin.H{"email": email})
	})

	return router, jwtService
}

func TestAdminAuth(t *testing.T) {
	t.Run("Valid Token Passes And Sets Email", func(t *testing.T) {
		router, jwtService := adminAuthRouter([]string{"admin@vistalens.com"})

		token, err := jwtService.GenerateToken("admin@vistalens.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin@vistalens.com")
	})

	t.Run("Missing Header Is 401", func(t *testing.T) {
		router, _ := adminAuthRouter([]string{"admin@vistalens.com"})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong Scheme Is 401", func(t *testing.T) {
		router, _ := adminAuthRouter([]string{"admin@vistalens.com"})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Removed From Allowlist Is 403", func(t *testing.T) {
		// Token was issued while the email was allowed; the allowlist check
		// on each request revokes it
		router, jwtService := adminAuthRouter([]string{"other@vistalens.com"})

		token, err := jwtService.GenerateToken("admin@vistalens.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Expired Token Is 401", func(t *testing.T) {
		router, _ := adminAuthRouter([]string{"admin@vistalens.com"})

		expired := jwt.NewService("test-secret", -time.Minute)
		token, err := expired.GenerateToken("admin@vistalens.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
