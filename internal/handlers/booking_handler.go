package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
)

// BookingHandler handles the public booking endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	pricingService *services.PricingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookingService *services.BookingService,
	pricingService *services.PricingService,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		pricingService: pricingService,
		logger:         logger,
	}
}

// CreateDraft creates a draft booking from the public booking form
// @Summary Create draft booking
// @Description Validates the request, recomputes the price server side and stores a draft booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.Booking
// @Failure 400 {object} map[string]interface{} "Validation error or price mismatch"
// @Failure 409 {object} map[string]interface{} "Duplicate booking"
// @Failure 429 {object} map[string]interface{} "Rate limited"
// @Router /booking/create-draft [post]
func (h *BookingHandler) CreateDraft(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	booking, err := h.bookingService.CreateDraft(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"bookingId": booking.ID,
		"booking":   booking,
	})
}

// GetPackages returns the current price quotes for all packages
// @Summary List package prices
// @Description Returns server-computed prices, with the seasonal discount applied for the given date
// @Tags Booking
// @Produce json
// @Param date query string false "Booking date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid date"
// @Router /booking/packages [get]
func (h *BookingHandler) GetPackages(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"date":     date.Format("2006-01-02"),
		"packages": h.pricingService.AllQuotes(date),
	})
}

// GetQuote returns the authoritative price for one package on a date
// @Summary Quote a package
// @Description Computes the price and deposit for a package, date, and people count
// @Tags Booking
// @Produce json
// @Param packageId query string true "Package id"
// @Param date query string true "Booking date (YYYY-MM-DD)"
// @Param peopleCount query int false "People count (per-person package only)"
// @Success 200 {object} services.Quote
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Router /booking/quote [get]
func (h *BookingHandler) GetQuote(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	people := 1
	if raw := c.Query("peopleCount"); raw != "" {
		people = parseIntDefault(raw, 0)
	}

	quote, err := h.pricingService.QuoteFor(models.PackageID(c.Query("packageId")), date, people)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}
