package models

import (
	"time"
)

// PackageID identifies a photography package
type PackageID string

const (
	PackageEssential PackageID = "essential"
	PackagePremium   PackageID = "premium"
	PackageLuxury    PackageID = "luxury"
	PackageRooftop   PackageID = "rooftop" // priced per person
)

// KnownPackageIDs lists all bookable packages
var KnownPackageIDs = []PackageID{PackageEssential, PackagePremium, PackageLuxury, PackageRooftop}

// IsValidPackageID reports whether the given id is a known package
func IsValidPackageID(id PackageID) bool {
	for _, known := range KnownPackageIDs {
		if id == known {
			return true
		}
	}
	return false
}

// IsPerPerson reports whether the package is priced per person
func (p PackageID) IsPerPerson() bool {
	return p == PackageRooftop
}

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "draft"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// AdminSettableStatuses are the statuses an admin mutation may set.
// A booking never goes back to draft once it has left that state.
var AdminSettableStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusCompleted,
}

// IsAdminSettableStatus reports whether an admin may set the given status
func IsAdminSettableStatus(s BookingStatus) bool {
	for _, allowed := range AdminSettableStatuses {
		if s == allowed {
			return true
		}
	}
	return false
}

// Booking represents a photo-shoot booking
type Booking struct {
	ID            string        `json:"id" db:"id"`
	PackageID     PackageID     `json:"package_id" db:"package_id"`
	CustomerName  string        `json:"customer_name" db:"customer_name"`
	CustomerEmail string        `json:"customer_email" db:"customer_email"`
	CustomerPhone string        `json:"customer_phone" db:"customer_phone"`
	BookingDate   string        `json:"booking_date" db:"booking_date"` // YYYY-MM-DD
	BookingTime   string        `json:"booking_time" db:"booking_time"` // HH:MM
	Status        BookingStatus `json:"status" db:"status"`
	TotalAmount   float64       `json:"total_amount" db:"total_amount"`
	PeopleCount   *int          `json:"people_count,omitempty" db:"people_count"`
	Notes         *string       `json:"notes,omitempty" db:"notes"`
	Locale        string        `json:"locale" db:"locale"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ParsedDate returns the booking date as a time.Time
func (b *Booking) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", b.BookingDate)
}

// BookingListFilter holds list/search parameters for the admin endpoints
type BookingListFilter struct {
	Page      int
	Limit     int
	Search    string // substring match on name/email/phone
	Status    BookingStatus
	DateFrom  string // YYYY-MM-DD, inclusive
	DateTo    string // YYYY-MM-DD, inclusive
	SortBy    string // created_at, booking_date, total_amount, status
	SortOrder string // asc or desc
}

// Pagination describes a page of results
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata from a total row count
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
