package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
)

// AdminHandler handles the authenticated admin dashboard endpoints
type AdminHandler struct {
	adminService *services.AdminService
	logger       *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// ListBookings returns a filtered, paginated page of bookings
// @Summary List bookings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param status query string false "Booking status filter"
// @Param search query string false "Substring match on name/email/phone"
// @Param dateFrom query string false "Booking date from (YYYY-MM-DD)"
// @Param dateTo query string false "Booking date to (YYYY-MM-DD)"
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	filter := models.BookingListFilter{
		Page:      parseIntDefault(c.Query("page"), 0),
		Limit:     parseIntDefault(c.Query("limit"), 0),
		Search:    c.Query("search"),
		Status:    models.BookingStatus(c.Query("status")),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	bookings, pagination, err := h.adminService.ListBookings(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       bookings,
		"pagination": pagination,
	})
}

// UpdateBookingStatus applies an admin status change to a booking
// @Summary Update booking status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateBookingStatusRequest true "Status change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Status not settable"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /admin/bookings [patch]
func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.adminService.UpdateBookingStatus(&req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"bookingId": req.BookingID,
		"status":    req.Status,
	})
}

// ListCustomers returns a paginated page of customers with aggregates
// @Summary List customers
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param search query string false "Substring match on name/email/phone"
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /admin/customers [get]
func (h *AdminHandler) ListCustomers(c *gin.Context) {
	filter := models.CustomerListFilter{
		Page:      parseIntDefault(c.Query("page"), 0),
		Limit:     parseIntDefault(c.Query("limit"), 0),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	customers, pagination, err := h.adminService.ListCustomers(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       customers,
		"pagination": pagination,
	})
}

// ListPayments returns a filtered, paginated page of payments
// @Summary List payments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param status query string false "Payment status filter"
// @Param provider query string false "Provider filter"
// @Param dateFrom query string false "Created from (YYYY-MM-DD)"
// @Param dateTo query string false "Created to (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c *gin.Context) {
	filter := models.PaymentListFilter{
		Page:      parseIntDefault(c.Query("page"), 0),
		Limit:     parseIntDefault(c.Query("limit"), 0),
		Status:    models.PaymentStatus(c.Query("status")),
		Provider:  models.PaymentProviderName(c.Query("provider")),
		DateFrom:  c.Query("dateFrom"),
		DateTo:    c.Query("dateTo"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	payments, pagination, err := h.adminService.ListPayments(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       payments,
		"pagination": pagination,
	})
}

// Stats returns dashboard aggregates
// @Summary Dashboard stats
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.DashboardStats
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
