package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/models"
)

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		DepositFraction: 0.30,
		DiscountPercent: 20,
		DiscountStart:   "12-01",
		DiscountEnd:     "02-28",
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestQuoteFor(t *testing.T) {
	svc := NewPricingService(testPricingConfig())

	t.Run("Flat Rate Package Off Season", func(t *testing.T) {
		quote, err := svc.QuoteFor(models.PackagePremium, mustDate(t, "2026-07-10"), 0)
		require.NoError(t, err)
		assert.Equal(t, 250.0, quote.Price)
		assert.False(t, quote.IsDiscounted)
		assert.Equal(t, 75.0, quote.DepositAmount)
	})

	t.Run("Per Person Package", func(t *testing.T) {
		quote, err := svc.QuoteFor(models.PackageRooftop, mustDate(t, "2026-07-10"), 4)
		require.NoError(t, err)
		assert.Equal(t, 320.0, quote.Price)
		assert.Equal(t, 96.0, quote.DepositAmount)
	})

	t.Run("Per Person Count Out Of Range", func(t *testing.T) {
		_, err := svc.QuoteFor(models.PackageRooftop, mustDate(t, "2026-07-10"), 11)
		require.Error(t, err)

		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("Unknown Package", func(t *testing.T) {
		_, err := svc.QuoteFor(models.PackageID("deluxe"), mustDate(t, "2026-07-10"), 1)
		assert.Error(t, err)
	})
}

func TestSeasonalDiscount(t *testing.T) {
	svc := NewPricingService(testPricingConfig())

	t.Run("Inside Window After Year Boundary", func(t *testing.T) {
		quote, err := svc.QuoteFor(models.PackageEssential, mustDate(t, "2026-01-15"), 0)
		require.NoError(t, err)
		assert.True(t, quote.IsDiscounted)
		assert.Equal(t, 120.0, quote.Price)
		assert.Equal(t, 36.0, quote.DepositAmount)
	})

	t.Run("Inside Window Before Year Boundary", func(t *testing.T) {
		quote, err := svc.QuoteFor(models.PackageLuxury, mustDate(t, "2026-12-25"), 0)
		require.NoError(t, err)
		assert.True(t, quote.IsDiscounted)
		assert.Equal(t, 320.0, quote.Price)
	})

	t.Run("Window Edges Are Inclusive", func(t *testing.T) {
		start, err := svc.QuoteFor(models.PackageEssential, mustDate(t, "2026-12-01"), 0)
		require.NoError(t, err)
		assert.True(t, start.IsDiscounted)

		end, err := svc.QuoteFor(models.PackageEssential, mustDate(t, "2027-02-28"), 0)
		require.NoError(t, err)
		assert.True(t, end.IsDiscounted)
	})

	t.Run("Outside Window", func(t *testing.T) {
		quote, err := svc.QuoteFor(models.PackageEssential, mustDate(t, "2026-03-01"), 0)
		require.NoError(t, err)
		assert.False(t, quote.IsDiscounted)
		assert.Equal(t, 150.0, quote.Price)
	})

	t.Run("Zero Percent Disables Discount", func(t *testing.T) {
		cfg := testPricingConfig()
		cfg.DiscountPercent = 0
		flat := NewPricingService(cfg)

		quote, err := flat.QuoteFor(models.PackageEssential, mustDate(t, "2026-01-15"), 0)
		require.NoError(t, err)
		assert.False(t, quote.IsDiscounted)
	})
}

func TestVerifyTotal(t *testing.T) {
	svc := NewPricingService(testPricingConfig())

	t.Run("Exact Match", func(t *testing.T) {
		quote, err := svc.VerifyTotal(models.PackagePremium, mustDate(t, "2026-07-10"), 0, 250.0)
		require.NoError(t, err)
		assert.Equal(t, 250.0, quote.Price)
	})

	t.Run("Within One Cent", func(t *testing.T) {
		_, err := svc.VerifyTotal(models.PackagePremium, mustDate(t, "2026-07-10"), 0, 250.005)
		assert.NoError(t, err)
	})

	t.Run("Mismatch Rejected", func(t *testing.T) {
		_, err := svc.VerifyTotal(models.PackagePremium, mustDate(t, "2026-07-10"), 0, 199.0)
		require.Error(t, err)

		var mismatch *models.PriceMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 250.0, mismatch.Expected)
		assert.Equal(t, 199.0, mismatch.Submitted)
	})
}

func TestVerifyDeposit(t *testing.T) {
	svc := NewPricingService(testPricingConfig())

	t.Run("Discounted Deposit", func(t *testing.T) {
		quote, err := svc.VerifyDeposit(models.PackageLuxury, mustDate(t, "2026-01-15"), 0, 96.0)
		require.NoError(t, err)
		assert.Equal(t, 96.0, quote.DepositAmount)
	})

	t.Run("Stale Client Deposit Rejected", func(t *testing.T) {
		// Client computed against the undiscounted price
		_, err := svc.VerifyDeposit(models.PackageLuxury, mustDate(t, "2026-01-15"), 0, 120.0)
		require.Error(t, err)

		var mismatch *models.PriceMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})
}

func TestAllQuotes(t *testing.T) {
	svc := NewPricingService(testPricingConfig())

	quotes := svc.AllQuotes(mustDate(t, "2026-07-10"))
	require.Len(t, quotes, 4)
	assert.Equal(t, models.PackageEssential, quotes[0].PackageID)
	assert.Equal(t, models.PackageRooftop, quotes[3].PackageID)
	assert.Equal(t, 80.0, quotes[3].Price)
}
