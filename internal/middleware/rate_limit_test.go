package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/database"
	"github.com/vistalens/booking-backend/internal/services"
)

func rateLimitRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := services.NewRateLimitService(db, config.RateLimitConfig{
		BookingRequests: 2,
		AdminRequests:   60,
		WindowSeconds:   60,
	})

	router := gin.New()
	router.GET("/limited", RateLimit(svc, services.RateLimitScopeBooking, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router, mock, func() { _ = mockDB.Close() }
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Under Limit Passes And Records", func(t *testing.T) {
		router, mock, closeDB := rateLimitRouter(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(MAX\(created_at\), NOW\(\)\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(1, time.Now()))
		mock.ExpectExec(`INSERT INTO request_rate_limits`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("At Limit Is 429 With Retry-After", func(t *testing.T) {
		router, mock, closeDB := rateLimitRouter(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(MAX\(created_at\), NOW\(\)\)`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(2, time.Now()))

		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Limiter Failure Lets Request Through", func(t *testing.T) {
		router, mock, closeDB := rateLimitRouter(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(MAX\(created_at\), NOW\(\)\)`).
			WillReturnError(assert.AnError)
		mock.ExpectExec(`INSERT INTO request_rate_limits`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.Header.Set("X-Real-IP", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
