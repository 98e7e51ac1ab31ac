package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/database"
	"github.com/vistalens/booking-backend/internal/models"
)

// Rate limit scopes. Booking covers the public booking/payment endpoints,
// admin covers the dashboard query endpoints.
const (
	RateLimitScopeBooking = "booking"
	RateLimitScopeAdmin   = "admin"
)

// RateLimitService handles per-IP request rate limiting backed by the
// database, so limits survive restarts and apply across replicas
type RateLimitService struct {
	db  database.DB
	cfg config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
	}
}

// Check verifies the IP has not exceeded the limit for the given scope
func (s *RateLimitService) Check(scope, ip string) error {
	if ip == "" {
		return nil
	}

	limit := s.limitFor(scope)
	window := s.window()

	count, lastRequest, err := s.getRequestCount(scope, ip, window)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count >= limit {
		retryAfter := lastRequest.Add(window)
		return &models.RateLimitError{
			Message:    fmt.Sprintf("Too many requests. Please try again after %s", retryAfter.Format("15:04:05")),
			RetryAfter: retryAfter,
			Scope:      scope,
		}
	}

	return nil
}

// Record logs a request against the IP for the given scope
func (s *RateLimitService) Record(scope, ip string) error {
	if ip == "" {
		return nil
	}

	query := `
		INSERT INTO request_rate_limits (scope, identifier, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := s.db.Exec(query, scope, ip); err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}

	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(scope, identifier string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM request_rate_limits
		WHERE scope = $1
		  AND identifier = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, scope, identifier, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

// CleanupExpired removes rate limit records older than the window
func (s *RateLimitService) CleanupExpired() (int64, error) {
	cutoff := time.Now().Add(-s.window())

	query := `
		DELETE FROM request_rate_limits
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (s *RateLimitService) limitFor(scope string) int {
	if scope == RateLimitScopeAdmin {
		return s.cfg.AdminRequests
	}
	return s.cfg.BookingRequests
}

func (s *RateLimitService) window() time.Duration {
	seconds := s.cfg.WindowSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}
