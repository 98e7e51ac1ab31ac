package services

import (
	"fmt"
	"math"
	"time"

	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/models"
)

// packageDef describes one bookable shoot package
type packageDef struct {
	DisplayName string
	BasePrice   float64 // EUR; per person when PerPerson is set
	PerPerson   bool
}

// packageCatalog is the source of truth for package pricing. Client-submitted
// totals are never trusted; they are recomputed against this table.
var packageCatalog = map[models.PackageID]packageDef{
	models.PackageEssential: {DisplayName: "Essential", BasePrice: 150},
	models.PackagePremium:   {DisplayName: "Premium", BasePrice: 250},
	models.PackageLuxury:    {DisplayName: "Luxury", BasePrice: 400},
	models.PackageRooftop:   {DisplayName: "Rooftop", BasePrice: 80, PerPerson: true},
}

// Quote is the server-side price computation for a package on a date
type Quote struct {
	PackageID          models.PackageID `json:"packageId"`
	DisplayName        string           `json:"displayName"`
	BasePrice          float64          `json:"basePrice"`
	DiscountPercentage float64          `json:"discountPercentage"`
	IsDiscounted       bool             `json:"isDiscounted"`
	Price              float64          `json:"price"`
	DepositAmount      float64          `json:"depositAmount"`
}

// PricingService recomputes package prices and deposits server side
type PricingService struct {
	cfg config.PricingConfig
}

// NewPricingService creates a new pricing service
func NewPricingService(cfg config.PricingConfig) *PricingService {
	return &PricingService{cfg: cfg}
}

// QuoteFor computes the authoritative price for a package on a booking date.
// peopleCount is ignored for flat-rate packages.
func (s *PricingService) QuoteFor(packageID models.PackageID, bookingDate time.Time, peopleCount int) (*Quote, error) {
	def, ok := packageCatalog[packageID]
	if !ok {
		return nil, models.NewValidationError("packageId", "unknown package")
	}

	base := def.BasePrice
	if def.PerPerson {
		if peopleCount < 1 || peopleCount > 10 {
			return nil, models.NewValidationError("peopleCount", "must be between 1 and 10")
		}
		base = def.BasePrice * float64(peopleCount)
	}

	price := base
	discounted := s.inDiscountWindow(bookingDate)
	if discounted {
		price = round2(base * (1 - s.cfg.DiscountPercent/100))
	}

	return &Quote{
		PackageID:          packageID,
		DisplayName:        def.DisplayName,
		BasePrice:          base,
		DiscountPercentage: s.cfg.DiscountPercent,
		IsDiscounted:       discounted,
		Price:              price,
		DepositAmount:      round2(price * s.cfg.DepositFraction),
	}, nil
}

// AllQuotes returns quotes for every flat-rate package plus the per-person
// package at a single person. Used by the public pricing endpoint.
func (s *PricingService) AllQuotes(bookingDate time.Time) []Quote {
	quotes := make([]Quote, 0, len(packageCatalog))
	for _, id := range []models.PackageID{
		models.PackageEssential, models.PackagePremium,
		models.PackageLuxury, models.PackageRooftop,
	} {
		quote, err := s.QuoteFor(id, bookingDate, 1)
		if err != nil {
			continue
		}
		quotes = append(quotes, *quote)
	}
	return quotes
}

// VerifyTotal compares a client-submitted total against the server
// computation. Differences beyond one cent reject the booking.
func (s *PricingService) VerifyTotal(packageID models.PackageID, bookingDate time.Time, peopleCount int, submitted float64) (*Quote, error) {
	quote, err := s.QuoteFor(packageID, bookingDate, peopleCount)
	if err != nil {
		return nil, err
	}

	if math.Abs(quote.Price-submitted) > 0.01 {
		return nil, &models.PriceMismatchError{
			Expected:  quote.Price,
			Submitted: submitted,
		}
	}

	return quote, nil
}

// VerifyDeposit compares a client-submitted deposit against the server
// computation with the same one-cent tolerance.
func (s *PricingService) VerifyDeposit(packageID models.PackageID, bookingDate time.Time, peopleCount int, submitted float64) (*Quote, error) {
	quote, err := s.QuoteFor(packageID, bookingDate, peopleCount)
	if err != nil {
		return nil, err
	}

	if math.Abs(quote.DepositAmount-submitted) > 0.01 {
		return nil, &models.PriceMismatchError{
			Expected:  quote.DepositAmount,
			Submitted: submitted,
		}
	}

	return quote, nil
}

// inDiscountWindow reports whether the booking date falls inside the
// seasonal discount window. The window may span the year boundary
// (default Dec 1 through Feb 28).
func (s *PricingService) inDiscountWindow(date time.Time) bool {
	if s.cfg.DiscountPercent <= 0 {
		return false
	}

	start, err1 := parseMonthDay(s.cfg.DiscountStart)
	end, err2 := parseMonthDay(s.cfg.DiscountEnd)
	if err1 != nil || err2 != nil {
		return false
	}

	day := monthDay{month: int(date.Month()), day: date.Day()}

	if start.lessOrEqual(end) {
		return start.lessOrEqual(day) && day.lessOrEqual(end)
	}
	// Window wraps the year boundary
	return start.lessOrEqual(day) || day.lessOrEqual(end)
}

type monthDay struct {
	month, day int
}

func (m monthDay) lessOrEqual(other monthDay) bool {
	if m.month != other.month {
		return m.month < other.month
	}
	return m.day <= other.day
}

// parseMonthDay parses "MM-DD" strings from config
func parseMonthDay(s string) (monthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%d-%d", &m, &d); err != nil {
		return monthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return monthDay{}, fmt.Errorf("invalid month-day %q", s)
	}
	return monthDay{month: m, day: d}, nil
}

// round2 rounds to two decimal places, away from zero on ties
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
