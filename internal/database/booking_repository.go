package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vistalens/booking-backend/internal/models"
)

// bookingSortColumns whitelists sortable columns for the admin list endpoint
var bookingSortColumns = map[string]string{
	"created_at":   "created_at",
	"booking_date": "booking_date",
	"total_amount": "total_amount",
	"status":       "status",
}

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, package_id, customer_name, customer_email, customer_phone,
			booking_date, booking_time, status, total_amount, people_count,
			notes, locale
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.PackageID, booking.CustomerName, booking.CustomerEmail,
		booking.CustomerPhone, booking.BookingDate, booking.BookingTime, booking.Status,
		booking.TotalAmount, booking.PeopleCount, booking.Notes, booking.Locale,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `
		SELECT id, package_id, customer_name, customer_email, customer_phone,
		       booking_date, booking_time, status, total_amount, people_count,
		       notes, locale, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking models.Booking
	err := r.db.Get(&booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return &booking, nil
}

// FindRecentDuplicate returns a booking with the same (email, package, date, time)
// created within the given window, if one exists
func (r *BookingRepository) FindRecentDuplicate(email string, packageID models.PackageID, date, bookingTime string, window time.Duration) (*models.Booking, error) {
	query := `
		SELECT id, package_id, customer_name, customer_email, customer_phone,
		       booking_date, booking_time, status, total_amount, people_count,
		       notes, locale, created_at, updated_at
		FROM bookings
		WHERE customer_email = $1
		  AND package_id = $2
		  AND booking_date = $3
		  AND booking_time = $4
		  AND created_at > $5
		ORDER BY created_at DESC
		LIMIT 1
	`

	cutoff := time.Now().Add(-window)

	var booking models.Booking
	err := r.db.Get(&booking, query, email, packageID, date, bookingTime, cutoff)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate booking: %w", err)
	}

	return &booking, nil
}

// UpdateStatus sets the booking status. Used by the admin mutation; the
// service layer enforces which transitions are allowed.
func (r *BookingRepository) UpdateStatus(bookingID string, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, bookingID)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &models.NotFoundError{Entity: "booking", ID: bookingID}
	}

	return nil
}

// ConfirmIfNotConfirmed promotes a booking to confirmed only if it is not
// already confirmed. Returns true when this call performed the promotion,
// false when the booking was already confirmed (or missing). The conditional
// write keeps webhook retries idempotent under concurrency.
func (r *BookingRepository) ConfirmIfNotConfirmed(bookingID string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`

	result, err := r.db.Exec(query, models.BookingStatusConfirmed, bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to confirm booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// List returns a page of bookings matching the filter plus the total count
func (r *BookingRepository) List(filter models.BookingListFilter) ([]models.Booking, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Search != "" {
		where = append(where, fmt.Sprintf(
			"(customer_name ILIKE $%d OR customer_email ILIKE $%d OR customer_phone ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.DateFrom != "" {
		where = append(where, fmt.Sprintf("booking_date >= $%d", argIdx))
		args = append(args, filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != "" {
		where = append(where, fmt.Sprintf("booking_date <= $%d", argIdx))
		args = append(args, filter.DateTo)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bookings WHERE %s", whereClause)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	sortCol, ok := bookingSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	sortDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortDir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, package_id, customer_name, customer_email, customer_phone,
		       booking_date, booking_time, status, total_amount, people_count,
		       notes, locale, created_at, updated_at
		FROM bookings
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortCol, sortDir, argIdx, argIdx+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, total, nil
}

// GetByEmails fetches all bookings for the given customer emails. Used by
// the admin customer listing to compute per-customer aggregates in memory.
func (r *BookingRepository) GetByEmails(emails []string) ([]models.Booking, error) {
	if len(emails) == 0 {
		return []models.Booking{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, package_id, customer_name, customer_email, customer_phone,
		       booking_date, booking_time, status, total_amount, people_count,
		       notes, locale, created_at, updated_at
		FROM bookings
		WHERE customer_email IN (?)
		ORDER BY created_at DESC
	`, emails)
	if err != nil {
		return nil, fmt.Errorf("failed to build bookings-by-email query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch bookings by email: %w", err)
	}

	return bookings, nil
}

// StatusCount pairs a booking status with its row count
type StatusCount struct {
	Status models.BookingStatus `db:"status"`
	Count  int                  `db:"count"`
}

// CountByStatus returns booking counts grouped by status
func (r *BookingRepository) CountByStatus() ([]StatusCount, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM bookings
		GROUP BY status
	`

	counts := []StatusCount{}
	if err := r.db.Select(&counts, query); err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	return counts, nil
}

// ConfirmedRevenue returns the total value of confirmed and completed bookings
func (r *BookingRepository) ConfirmedRevenue() (float64, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM bookings
		WHERE status IN ($1, $2)
	`

	var revenue float64
	err := r.db.Get(&revenue, query, models.BookingStatusConfirmed, models.BookingStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to compute confirmed revenue: %w", err)
	}

	return revenue, nil
}
