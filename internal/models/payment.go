package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProviderName identifies a payment provider
type PaymentProviderName string

const (
	ProviderIyzico     PaymentProviderName = "iyzico"
	ProviderTurinvoice PaymentProviderName = "turinvoice"
)

// PaymentStatus represents the state of a payment.
// Transitions are pending -> success or pending -> failure only.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailure PaymentStatus = "failure"
)

// Payment represents a deposit payment attempt against a booking
type Payment struct {
	ID                uuid.UUID           `json:"id" db:"id"`
	BookingID         *string             `json:"booking_id,omitempty" db:"booking_id"`
	Provider          PaymentProviderName `json:"provider" db:"provider"`
	ProviderPaymentID *string             `json:"provider_payment_id,omitempty" db:"provider_payment_id"`
	ProviderOrderID   *string             `json:"provider_order_id,omitempty" db:"provider_order_id"`
	ConversationID    string              `json:"conversation_id" db:"conversation_id"`
	Status            PaymentStatus       `json:"status" db:"status"`
	Amount            float64             `json:"amount" db:"amount"`
	Currency          string              `json:"currency" db:"currency"`
	ProviderResponse  JSONB               `json:"provider_response,omitempty" db:"provider_response"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

// PaymentListFilter holds list/search parameters for the admin payment endpoint
type PaymentListFilter struct {
	Page      int
	Limit     int
	Status    PaymentStatus
	Provider  PaymentProviderName
	DateFrom  string
	DateTo    string
	SortBy    string // created_at, amount, status
	SortOrder string
}
