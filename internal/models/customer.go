package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a customer identified by email. One customer can
// own many bookings; the row is upserted on every booking attempt.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CustomerListFilter holds list/search parameters for the admin customer endpoint
type CustomerListFilter struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string // created_at, name, email
	SortOrder string
}

// CustomerStats holds per-customer aggregates computed by joining
// bookings and payments in memory after fetch
type CustomerStats struct {
	ConfirmedBookings  int            `json:"confirmed_bookings"`
	TotalConfirmed     float64        `json:"total_confirmed_value"`
	TotalPaid          float64        `json:"total_paid"`
	OutstandingBalance float64        `json:"outstanding_balance"`
	LastBookingDate    *string        `json:"last_booking_date,omitempty"`
	LastBookingStatus  *BookingStatus `json:"last_booking_status,omitempty"`
}

// CustomerWithStats combines a customer row with its aggregates
type CustomerWithStats struct {
	Customer
	Stats CustomerStats `json:"stats"`
}
