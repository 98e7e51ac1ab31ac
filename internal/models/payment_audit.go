package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventInitiated        PaymentEventType = "payment_initiated"
	PaymentEventResponse         PaymentEventType = "payment_response"
	PaymentEventWebhookReceived  PaymentEventType = "webhook_received"
	PaymentEventWebhookRejected  PaymentEventType = "webhook_rejected"
	PaymentEventSuccess          PaymentEventType = "payment_success"
	PaymentEventFailed           PaymentEventType = "payment_failed"
	PaymentEventBookingConfirmed PaymentEventType = "booking_confirmed"
	PaymentEventAmountMismatch   PaymentEventType = "amount_mismatch"
	PaymentEventError            PaymentEventType = "error"
)

// PaymentEventSource identifies where the event originated
type PaymentEventSource string

const (
	PaymentSourceBackend           PaymentEventSource = "backend"
	PaymentSourceIyzicoAPI         PaymentEventSource = "iyzico_api"
	PaymentSourceTurinvoiceAPI     PaymentEventSource = "turinvoice_api"
	PaymentSourceTurinvoiceWebhook PaymentEventSource = "turinvoice_webhook"
)

// PaymentAudit represents an immutable audit log entry for payment events
type PaymentAudit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID *string   `json:"booking_id,omitempty" db:"booking_id"`
	PaymentID *string   `json:"payment_id,omitempty" db:"payment_id"`

	// Event info
	EventType   PaymentEventType   `json:"event_type" db:"event_type"`
	EventSource PaymentEventSource `json:"event_source" db:"event_source"`

	// Amount tracking
	ExpectedAmount *float64 `json:"expected_amount,omitempty" db:"expected_amount"`
	ReceivedAmount *float64 `json:"received_amount,omitempty" db:"received_amount"`
	Currency       *string  `json:"currency,omitempty" db:"currency"`
	AmountsMatch   *bool    `json:"amounts_match,omitempty" db:"amounts_match"`

	// Provider references
	ProviderOrderID *string `json:"provider_order_id,omitempty" db:"provider_order_id"`
	PaymentStatus   *string `json:"payment_status,omitempty" db:"payment_status"`

	// Raw payloads kept for debugging
	RequestPayload  JSONB   `json:"request_payload,omitempty" db:"request_payload"`
	ResponsePayload JSONB   `json:"response_payload,omitempty" db:"response_payload"`
	RawBody         *string `json:"raw_body,omitempty" db:"raw_body"`

	// Error tracking
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`
	ErrorCode    *string `json:"error_code,omitempty" db:"error_code"`

	// Request metadata
	IPAddress  *string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string `json:"user_agent,omitempty" db:"user_agent"`
	DeviceType *string `json:"device_type,omitempty" db:"device_type"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewPaymentAudit creates a new payment audit entry with required fields
func NewPaymentAudit(eventType PaymentEventType, source PaymentEventSource) *PaymentAudit {
	return &PaymentAudit{
		ID:          uuid.New(),
		EventType:   eventType,
		EventSource: source,
		CreatedAt:   time.Now(),
	}
}
