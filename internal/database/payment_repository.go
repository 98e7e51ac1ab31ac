package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vistalens/booking-backend/internal/models"
)

var paymentSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount",
	"status":     "status",
}

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment
func (r *PaymentRepository) Create(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, provider, provider_payment_id, provider_order_id,
			conversation_id, status, amount, currency, provider_response
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING created_at, updated_at
	`

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.Provider, payment.ProviderPaymentID,
		payment.ProviderOrderID, payment.ConversationID, payment.Status,
		payment.Amount, payment.Currency, payment.ProviderResponse,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByProviderOrderID retrieves a payment by its provider order id.
// Returns nil without error when no payment matches, which is a legitimate
// outcome during the webhook/frontend creation race.
func (r *PaymentRepository) GetByProviderOrderID(orderID string) (*models.Payment, error) {
	query := `
		SELECT id, booking_id, provider, provider_payment_id, provider_order_id,
		       conversation_id, status, amount, currency, provider_response,
		       created_at, updated_at
		FROM payments
		WHERE provider_order_id = $1
	`

	var payment models.Payment
	err := r.db.Get(&payment, query, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment by order id: %w", err)
	}

	return &payment, nil
}

// GetByConversationID retrieves a payment by conversation id (used by the
// frontend status-polling endpoint)
func (r *PaymentRepository) GetByConversationID(conversationID string) (*models.Payment, error) {
	query := `
		SELECT id, booking_id, provider, provider_payment_id, provider_order_id,
		       conversation_id, status, amount, currency, provider_response,
		       created_at, updated_at
		FROM payments
		WHERE conversation_id = $1
	`

	var payment models.Payment
	err := r.db.Get(&payment, query, conversationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment by conversation id: %w", err)
	}

	return &payment, nil
}

// MarkSuccessIfPending transitions a payment to success only while it is
// still pending. Returns true when this call performed the transition.
// Payment status never reverses once it reaches success or failure.
func (r *PaymentRepository) MarkSuccessIfPending(paymentID uuid.UUID, providerPaymentID *string, response models.JSONB) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1,
		    provider_payment_id = COALESCE($2, provider_payment_id),
		    provider_response = COALESCE($3, provider_response),
		    updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.Exec(query, models.PaymentStatusSuccess, providerPaymentID, response, paymentID, models.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment success: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// MarkFailureIfPending transitions a payment to failure only while it is
// still pending
func (r *PaymentRepository) MarkFailureIfPending(paymentID uuid.UUID, response models.JSONB) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1,
		    provider_response = COALESCE($2, provider_response),
		    updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.Exec(query, models.PaymentStatusFailure, response, paymentID, models.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failure: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// List returns a page of payments matching the filter plus the total count
func (r *PaymentRepository) List(filter models.PaymentListFilter) ([]models.Payment, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Provider != "" {
		where = append(where, fmt.Sprintf("provider = $%d", argIdx))
		args = append(args, filter.Provider)
		argIdx++
	}
	if filter.DateFrom != "" {
		where = append(where, fmt.Sprintf("created_at >= $%d::date", argIdx))
		args = append(args, filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != "" {
		where = append(where, fmt.Sprintf("created_at < $%d::date + INTERVAL '1 day'", argIdx))
		args = append(args, filter.DateTo)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s", whereClause)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	sortCol, ok := paymentSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	sortDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortDir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, booking_id, provider, provider_payment_id, provider_order_id,
		       conversation_id, status, amount, currency, provider_response,
		       created_at, updated_at
		FROM payments
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortCol, sortDir, argIdx, argIdx+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	payments := []models.Payment{}
	if err := r.db.Select(&payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, total, nil
}

// BookingPaymentSum pairs a booking id with the sum of its successful payments
type BookingPaymentSum struct {
	BookingID string  `db:"booking_id"`
	Paid      float64 `db:"paid"`
}

// SuccessfulSumsByBooking returns, per booking, the sum of successful
// payment amounts. Used for customer aggregate computation.
func (r *PaymentRepository) SuccessfulSumsByBooking(bookingIDs []string) ([]BookingPaymentSum, error) {
	if len(bookingIDs) == 0 {
		return []BookingPaymentSum{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT booking_id, COALESCE(SUM(amount), 0) AS paid
		FROM payments
		WHERE booking_id IN (?) AND status = ?
		GROUP BY booking_id
	`, bookingIDs, models.PaymentStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment sums query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	sums := []BookingPaymentSum{}
	if err := r.db.Select(&sums, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch payment sums: %w", err)
	}

	return sums, nil
}

// SuccessfulTotal returns the overall sum of successful payment amounts
func (r *PaymentRepository) SuccessfulTotal() (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = $1
	`

	var total float64
	if err := r.db.Get(&total, query, models.PaymentStatusSuccess); err != nil {
		return 0, fmt.Errorf("failed to compute successful payment total: %w", err)
	}

	return total, nil
}

// CountByStatus returns payment counts grouped by status
func (r *PaymentRepository) CountByStatus() (map[models.PaymentStatus]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM payments
		GROUP BY status
	`

	rows := []struct {
		Status models.PaymentStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}
	if err := r.db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to count payments by status: %w", err)
	}

	counts := make(map[models.PaymentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}
