package models

import (
	"strings"
	"time"
)

// CreateBookingRequest is the body of POST /api/booking/create-draft
type CreateBookingRequest struct {
	PackageID     PackageID `json:"packageId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone"`
	BookingDate   string    `json:"bookingDate"` // YYYY-MM-DD
	BookingTime   string    `json:"bookingTime"` // HH:MM
	Notes         *string   `json:"notes,omitempty"`
	TotalAmount   float64   `json:"totalAmount"`
	PeopleCount   *int      `json:"peopleCount,omitempty"`
	Locale        string    `json:"locale,omitempty"`
}

// Validate checks structural constraints before any business logic runs
func (r *CreateBookingRequest) Validate() error {
	if !IsValidPackageID(r.PackageID) {
		return NewValidationError("packageId", "unknown package")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return NewValidationError("customerName", "is required")
	}
	if !looksLikeEmail(r.CustomerEmail) {
		return NewValidationError("customerEmail", "must be a valid email address")
	}
	if strings.TrimSpace(r.CustomerPhone) == "" {
		return NewValidationError("customerPhone", "is required")
	}
	if _, err := time.Parse("2006-01-02", r.BookingDate); err != nil {
		return NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", r.BookingTime); err != nil {
		return NewValidationError("bookingTime", "must be HH:MM")
	}
	if r.TotalAmount <= 0 {
		return NewValidationError("totalAmount", "must be positive")
	}
	if r.PackageID.IsPerPerson() {
		if r.PeopleCount == nil {
			return NewValidationError("peopleCount", "is required for the per-person package")
		}
		if *r.PeopleCount < 1 || *r.PeopleCount > 10 {
			return NewValidationError("peopleCount", "must be between 1 and 10")
		}
	}
	return nil
}

// CardData holds raw card fields submitted for a synchronous charge
type CardData struct {
	CardHolderName string `json:"cardHolderName"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"`
	ExpireYear     string `json:"expireYear"`
	CVC            string `json:"cvc"`
}

// Validate checks card fields are present and plausibly formed
func (c *CardData) Validate() error {
	if strings.TrimSpace(c.CardHolderName) == "" {
		return NewValidationError("paymentData.cardHolderName", "is required")
	}
	digits := strings.ReplaceAll(c.CardNumber, " ", "")
	if len(digits) < 13 || len(digits) > 19 {
		return NewValidationError("paymentData.cardNumber", "must be 13-19 digits")
	}
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return NewValidationError("paymentData.cardNumber", "must contain only digits")
		}
	}
	if c.ExpireMonth == "" || c.ExpireYear == "" {
		return NewValidationError("paymentData.expiry", "is required")
	}
	if len(c.CVC) < 3 || len(c.CVC) > 4 {
		return NewValidationError("paymentData.cvc", "must be 3 or 4 digits")
	}
	return nil
}

// NormalizedNumber returns the card number with spaces stripped
func (c *CardData) NormalizedNumber() string {
	return strings.ReplaceAll(c.CardNumber, " ", "")
}

// CustomerData identifies the paying customer on payment initialization
type CustomerData struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// InitializeCardPaymentRequest is the body of POST /api/payment/initialize
type InitializeCardPaymentRequest struct {
	PaymentData  CardData     `json:"paymentData"`
	CustomerData CustomerData `json:"customerData"`
	Amount       float64      `json:"amount"` // client-computed deposit, re-validated server side
	PackageID    PackageID    `json:"packageId"`
	BookingID    *string      `json:"bookingId,omitempty"`
	BookingDate  string       `json:"bookingDate"`
	PeopleCount  *int         `json:"peopleCount,omitempty"`
	Locale       string       `json:"locale,omitempty"`
}

// Validate checks structural constraints before any business logic runs
func (r *InitializeCardPaymentRequest) Validate() error {
	if !IsValidPackageID(r.PackageID) {
		return NewValidationError("packageId", "unknown package")
	}
	if err := r.PaymentData.Validate(); err != nil {
		return err
	}
	if !looksLikeEmail(r.CustomerData.Email) {
		return NewValidationError("customerData.email", "must be a valid email address")
	}
	if r.Amount <= 0 {
		return NewValidationError("amount", "must be positive")
	}
	if _, err := time.Parse("2006-01-02", r.BookingDate); err != nil {
		return NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}
	if r.PackageID.IsPerPerson() {
		if r.PeopleCount == nil || *r.PeopleCount < 1 || *r.PeopleCount > 10 {
			return NewValidationError("peopleCount", "must be between 1 and 10")
		}
	}
	return nil
}

// InitializeRedirectPaymentRequest is the body of POST /api/payment/initialize/turinvoice
type InitializeRedirectPaymentRequest struct {
	CustomerData CustomerData `json:"customerData"`
	Amount       float64      `json:"amount"`
	PackageID    PackageID    `json:"packageId"`
	BookingID    *string      `json:"bookingId,omitempty"`
	BookingDate  string       `json:"bookingDate"`
	PeopleCount  *int         `json:"peopleCount,omitempty"`
	Locale       string       `json:"locale,omitempty"`
}

// Validate checks structural constraints before any business logic runs
func (r *InitializeRedirectPaymentRequest) Validate() error {
	if !IsValidPackageID(r.PackageID) {
		return NewValidationError("packageId", "unknown package")
	}
	if !looksLikeEmail(r.CustomerData.Email) {
		return NewValidationError("customerData.email", "must be a valid email address")
	}
	if r.Amount <= 0 {
		return NewValidationError("amount", "must be positive")
	}
	if _, err := time.Parse("2006-01-02", r.BookingDate); err != nil {
		return NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}
	if r.PackageID.IsPerPerson() {
		if r.PeopleCount == nil || *r.PeopleCount < 1 || *r.PeopleCount > 10 {
			return NewValidationError("peopleCount", "must be between 1 and 10")
		}
	}
	return nil
}

// TurinvoiceWebhookPayload is the body Turinvoice posts on order state changes
type TurinvoiceWebhookPayload struct {
	ID        string  `json:"id"` // provider order id
	State     string  `json:"state"`
	SecretKey string  `json:"secret_key"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
}

// Validate checks the payload is structurally usable
func (p *TurinvoiceWebhookPayload) Validate() error {
	if p.ID == "" {
		return NewValidationError("id", "is required")
	}
	if p.State == "" {
		return NewValidationError("state", "is required")
	}
	return nil
}

// UpdateBookingStatusRequest is the body of PATCH /api/admin/bookings
type UpdateBookingStatusRequest struct {
	BookingID string        `json:"bookingId"`
	Status    BookingStatus `json:"status"`
}

// AdminLoginRequest is the body of POST /api/admin/login
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CardPaymentResponse is returned by the synchronous card flow
type CardPaymentResponse struct {
	Success        bool    `json:"success"`
	Status         string  `json:"status"`
	PaymentID      string  `json:"paymentId,omitempty"`
	ConversationID string  `json:"conversationId"`
	BookingID      string  `json:"bookingId,omitempty"`
	AmountEUR      float64 `json:"amountEUR"`
	AmountTRY      float64 `json:"amountTRY"`
	ExchangeRate   float64 `json:"exchangeRate"`
	ErrorMessage   string  `json:"errorMessage,omitempty"`
	ErrorCode      string  `json:"errorCode,omitempty"`
}

// RedirectPaymentResponse is returned by the asynchronous redirect flow
type RedirectPaymentResponse struct {
	Success      bool    `json:"success"`
	IDOrder      string  `json:"idOrder"`
	PaymentURL   string  `json:"paymentUrl"`
	AmountEUR    float64 `json:"amountEUR"`
	AmountTRY    float64 `json:"amountTRY"`
	ExchangeRate float64 `json:"exchangeRate"`
	Currency     string  `json:"currency"`
	State        string  `json:"state"`
}

// looksLikeEmail is a light structural check on email shape
func looksLikeEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".") && !strings.ContainsAny(email, " \t")
}
