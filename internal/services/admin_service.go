package services

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/database"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// maxPageSize caps admin list page sizes regardless of what the client asks for
const maxPageSize = 100

// defaultPageSize is used when the client sends no limit
const defaultPageSize = 20

// AdminService backs the admin dashboard: login, list/search endpoints,
// status mutations, and aggregate stats
type AdminService struct {
	cfg          *config.Config
	jwtService   *jwt.Service
	bookingRepo  *database.BookingRepository
	customerRepo *database.CustomerRepository
	paymentRepo  *database.PaymentRepository
	logger       *logrus.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	cfg *config.Config,
	jwtService *jwt.Service,
	bookingRepo *database.BookingRepository,
	customerRepo *database.CustomerRepository,
	paymentRepo *database.PaymentRepository,
	logger *logrus.Logger,
) *AdminService {
	return &AdminService{
		cfg:          cfg,
		jwtService:   jwtService,
		bookingRepo:  bookingRepo,
		customerRepo: customerRepo,
		paymentRepo:  paymentRepo,
		logger:       logger,
	}
}

// LoginResult carries a fresh admin session
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
	Email     string `json:"email"`
}

// Login checks the email against the allowlist and the password against
// the shared bcrypt hash, then issues a session token. Both failure modes
// return the same error so callers cannot probe the allowlist.
func (s *AdminService) Login(email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !s.cfg.IsAdminEmail(email) {
		s.logger.WithField("email", email).Warn("Login attempt from non-admin email")
		return nil, &models.AuthorizationError{Reason: "invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("email", email).Warn("Admin login with wrong password")
		return nil, &models.AuthorizationError{Reason: "invalid credentials"}
	}

	token, err := s.jwtService.GenerateToken(email)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("email", email).Info("Admin logged in")

	return &LoginResult{
		Token:     token,
		ExpiresIn: int(s.jwtService.TokenExpiry().Seconds()),
		Email:     email,
	}, nil
}

// ListBookings returns a page of bookings with pagination metadata
func (s *AdminService) ListBookings(filter models.BookingListFilter) ([]models.Booking, models.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	bookings, total, err := s.bookingRepo.List(filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	return bookings, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// UpdateBookingStatus applies an admin status change. Draft is not
// settable; a booking only leaves draft through payment.
func (s *AdminService) UpdateBookingStatus(req *models.UpdateBookingStatusRequest) error {
	if req.BookingID == "" {
		return models.NewValidationError("bookingId", "is required")
	}
	if !models.IsAdminSettableStatus(req.Status) {
		return models.NewValidationError("status", "must be one of pending, confirmed, cancelled, completed")
	}

	if err := s.bookingRepo.UpdateStatus(req.BookingID, req.Status); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": req.BookingID,
		"status":     req.Status,
	}).Info("Booking status updated by admin")

	return nil
}

// ListCustomers returns a page of customers, each with aggregates computed
// in memory from their bookings and successful payments
func (s *AdminService) ListCustomers(filter models.CustomerListFilter) ([]models.CustomerWithStats, models.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	customers, total, err := s.customerRepo.List(filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	stats, err := s.customerStats(customers)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	result := make([]models.CustomerWithStats, len(customers))
	for i, customer := range customers {
		result[i] = models.CustomerWithStats{
			Customer: customer,
			Stats:    stats[strings.ToLower(customer.Email)],
		}
	}

	return result, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// customerStats aggregates bookings and payments for the given page of
// customers. Two batched queries, joined in memory.
func (s *AdminService) customerStats(customers []models.Customer) (map[string]models.CustomerStats, error) {
	stats := make(map[string]models.CustomerStats, len(customers))
	if len(customers) == 0 {
		return stats, nil
	}

	emails := make([]string, len(customers))
	for i, c := range customers {
		emails[i] = c.Email
	}

	bookings, err := s.bookingRepo.GetByEmails(emails)
	if err != nil {
		return nil, err
	}

	bookingIDs := make([]string, len(bookings))
	for i, b := range bookings {
		bookingIDs[i] = b.ID
	}
	sums, err := s.paymentRepo.SuccessfulSumsByBooking(bookingIDs)
	if err != nil {
		return nil, err
	}
	paidByBooking := make(map[string]float64, len(sums))
	for _, sum := range sums {
		paidByBooking[sum.BookingID] = sum.Paid
	}

	// Bookings arrive newest first, so the first one seen per customer is
	// the latest
	for _, b := range bookings {
		key := strings.ToLower(b.CustomerEmail)
		st := stats[key]

		if st.LastBookingDate == nil {
			date := b.BookingDate
			status := b.Status
			st.LastBookingDate = &date
			st.LastBookingStatus = &status
		}

		// Paid totals only cover confirmed work; a payment on a booking
		// that was later cancelled does not reduce the outstanding balance
		if b.Status == models.BookingStatusConfirmed || b.Status == models.BookingStatusCompleted {
			st.ConfirmedBookings++
			st.TotalConfirmed += b.TotalAmount
			st.TotalPaid += paidByBooking[b.ID]
		}

		stats[key] = st
	}

	for key, st := range stats {
		st.OutstandingBalance = round2(st.TotalConfirmed - st.TotalPaid)
		st.TotalConfirmed = round2(st.TotalConfirmed)
		st.TotalPaid = round2(st.TotalPaid)
		stats[key] = st
	}

	return stats, nil
}

// ListPayments returns a page of payments with pagination metadata
func (s *AdminService) ListPayments(filter models.PaymentListFilter) ([]models.Payment, models.Pagination, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	payments, total, err := s.paymentRepo.List(filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	return payments, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// DashboardStats summarizes the whole business for the admin landing page
type DashboardStats struct {
	BookingsByStatus map[models.BookingStatus]int `json:"bookingsByStatus"`
	ConfirmedRevenue float64                      `json:"confirmedRevenue"`
	PaymentsByStatus map[models.PaymentStatus]int `json:"paymentsByStatus"`
	DepositsReceived float64                      `json:"depositsReceived"`
}

// Stats computes dashboard aggregates
func (s *AdminService) Stats() (*DashboardStats, error) {
	bookingCounts, err := s.bookingRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	byStatus := make(map[models.BookingStatus]int, len(bookingCounts))
	for _, c := range bookingCounts {
		byStatus[c.Status] = c.Count
	}

	revenue, err := s.bookingRepo.ConfirmedRevenue()
	if err != nil {
		return nil, err
	}

	paymentCounts, err := s.paymentRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	deposits, err := s.paymentRepo.SuccessfulTotal()
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		BookingsByStatus: byStatus,
		ConfirmedRevenue: revenue,
		PaymentsByStatus: paymentCounts,
		DepositsReceived: deposits,
	}, nil
}

// normalizePage clamps paging parameters to sane bounds
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}
