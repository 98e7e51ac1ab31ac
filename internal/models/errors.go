package models

import (
	"fmt"
	"time"
)

// ValidationError indicates a structurally invalid request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PriceMismatchError indicates the client-submitted amount differs from the
// server-computed price beyond the accepted tolerance
type PriceMismatchError struct {
	Expected  float64
	Submitted float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("price mismatch: expected %.2f, got %.2f", e.Expected, e.Submitted)
}

// DuplicateBookingError indicates an identical booking was created within
// the duplicate-detection window
type DuplicateBookingError struct {
	ExistingBookingID string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("duplicate booking: identical request created recently (booking %s)", e.ExistingBookingID)
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Scope      string // "booking" or "admin"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ProviderError carries a payment gateway failure. Code distinguishes
// business declines from transport failures.
type ProviderError struct {
	Provider PaymentProviderName
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (code: %s)", e.Provider, e.Message, e.Code)
}

// IsTransport reports whether the gateway itself was unreachable, as
// opposed to a decline returned by the gateway
func (e *ProviderError) IsTransport() bool {
	return e.Code == ProviderErrorCodeUnreachable
}

// ProviderErrorCodeUnreachable marks network-level gateway failures
const ProviderErrorCodeUnreachable = "gateway_unreachable"

// WebhookAuthError indicates a webhook carried a bad or missing secret
type WebhookAuthError struct {
	Provider PaymentProviderName
}

func (e *WebhookAuthError) Error() string {
	return fmt.Sprintf("%s webhook: invalid secret", e.Provider)
}

// AuthorizationError indicates a failed admin login or a rejected token
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// NotFoundError indicates a referenced entity does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}
