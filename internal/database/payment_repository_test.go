package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/models"
)

var paymentColumns = []string{
	"id", "booking_id", "provider", "provider_payment_id", "provider_order_id",
	"conversation_id", "status", "amount", "currency", "provider_response",
	"created_at", "updated_at",
}

func TestCreatePayment(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		bookingID := "bk-123"
		orderID := "ord-456"

		mock.ExpectQuery(`INSERT INTO payments`).
			WithArgs(
				sqlmock.AnyArg(), &bookingID, models.ProviderTurinvoice, nil, &orderID,
				"conv-789", models.PaymentStatusPending, 75.0, "EUR", sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		payment := &models.Payment{
			BookingID:       &bookingID,
			Provider:        models.ProviderTurinvoice,
			ProviderOrderID: &orderID,
			ConversationID:  "conv-789",
			Status:          models.PaymentStatusPending,
			Amount:          75.0,
			Currency:        "EUR",
		}

		err := repo.Create(payment)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, payment.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnError(fmt.Errorf("database error"))

		payment := &models.Payment{
			Provider:       models.ProviderIyzico,
			ConversationID: "conv-1",
			Status:         models.PaymentStatusPending,
			Amount:         45.0,
			Currency:       "EUR",
		}

		err := repo.Create(payment)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create payment")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaymentByProviderOrderID(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE provider_order_id`).
			WithArgs("ord-456").
			WillReturnRows(sqlmock.NewRows(paymentColumns).AddRow(
				paymentID, "bk-123", "turinvoice", nil, "ord-456",
				"conv-789", "pending", 75.0, "EUR", nil,
				now, now,
			))

		payment, err := repo.GetByProviderOrderID("ord-456")
		require.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Order Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE provider_order_id`).
			WithArgs("ord-unknown").
			WillReturnRows(sqlmock.NewRows(paymentColumns))

		payment, err := repo.GetByProviderOrderID("ord-unknown")
		assert.NoError(t, err)
		assert.Nil(t, payment)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkSuccessIfPending(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()

	t.Run("Pending Transitions", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(models.PaymentStatusSuccess, nil, sqlmock.AnyArg(), paymentID, models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		transitioned, err := repo.MarkSuccessIfPending(paymentID, nil, nil)
		require.NoError(t, err)
		assert.True(t, transitioned)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replay Is A NoOp", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(models.PaymentStatusSuccess, nil, sqlmock.AnyArg(), paymentID, models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		transitioned, err := repo.MarkSuccessIfPending(paymentID, nil, nil)
		require.NoError(t, err)
		assert.False(t, transitioned)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkFailureIfPending(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()

	mock.ExpectExec(`UPDATE payments`).
		WithArgs(models.PaymentStatusFailure, sqlmock.AnyArg(), paymentID, models.PaymentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitioned, err := repo.MarkFailureIfPending(paymentID, models.JSONB{"errorCode": "10051"})
	require.NoError(t, err)
	assert.True(t, transitioned)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuccessfulSumsByBooking(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)

	t.Run("Empty Input Skips Query", func(t *testing.T) {
		sums, err := repo.SuccessfulSumsByBooking(nil)
		require.NoError(t, err)
		assert.Empty(t, sums)
	})

	t.Run("Grouped Sums", func(t *testing.T) {
		mock.ExpectQuery(`SELECT booking_id, COALESCE\(SUM\(amount\), 0\)`).
			WithArgs("bk-1", "bk-2", models.PaymentStatusSuccess).
			WillReturnRows(sqlmock.NewRows([]string{"booking_id", "paid"}).
				AddRow("bk-1", 75.0).
				AddRow("bk-2", 120.0))

		sums, err := repo.SuccessfulSumsByBooking([]string{"bk-1", "bk-2"})
		require.NoError(t, err)
		require.Len(t, sums, 2)
		assert.Equal(t, "bk-1", sums[0].BookingID)
		assert.Equal(t, 75.0, sums[0].Paid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSuccessfulTotal(t *testing.T) {
	db, mock, closeDB := newMockDB(t)
	defer closeDB()

	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\)`).
		WithArgs(models.PaymentStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(945.5))

	total, err := repo.SuccessfulTotal()
	require.NoError(t, err)
	assert.Equal(t, 945.5, total)

	assert.NoError(t, mock.ExpectationsWereMet())
}
