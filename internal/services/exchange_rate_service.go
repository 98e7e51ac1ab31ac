package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/config"
)

// rateCacheTTL bounds how long a fetched rate is reused
const rateCacheTTL = 30 * time.Minute

// ExchangeRateService converts EUR amounts to TRY for providers that only
// charge in TRY. A stale or unreachable rate source falls back to the
// configured rate so payments keep flowing.
type ExchangeRateService struct {
	cfg    config.ExchangeRateConfig
	logger *logrus.Logger
	client *http.Client

	mu        sync.RWMutex
	rate      float64
	fetchedAt time.Time
}

// NewExchangeRateService creates a new exchange rate service
func NewExchangeRateService(cfg config.ExchangeRateConfig, logger *logrus.Logger) *ExchangeRateService {
	return &ExchangeRateService{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// frankfurterResponse is the shape of the rate source response
type frankfurterResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// EURToTRY returns the current EUR to TRY rate, preferring a cached fetch
// and falling back to the configured rate on any failure
func (s *ExchangeRateService) EURToTRY() float64 {
	s.mu.RLock()
	if s.rate > 0 && time.Since(s.fetchedAt) < rateCacheTTL {
		rate := s.rate
		s.mu.RUnlock()
		return rate
	}
	s.mu.RUnlock()

	rate, err := s.fetchRate()
	if err != nil {
		s.logger.WithError(err).Warn("Exchange rate fetch failed, using fallback rate")

		s.mu.RLock()
		cached := s.rate
		s.mu.RUnlock()
		if cached > 0 {
			return cached
		}
		return s.cfg.FallbackRate
	}

	s.mu.Lock()
	s.rate = rate
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return rate
}

// Convert converts an EUR amount to TRY using the current rate. Returns the
// converted amount and the rate used.
func (s *ExchangeRateService) Convert(amountEUR float64) (float64, float64) {
	rate := s.EURToTRY()
	return round2(amountEUR * rate), rate
}

func (s *ExchangeRateService) fetchRate() (float64, error) {
	resp, err := s.client.Get(s.cfg.SourceURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read exchange rate response: %w", err)
	}

	var parsed frankfurterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse exchange rate response: %w", err)
	}

	rate, ok := parsed.Rates["TRY"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange rate response missing TRY rate")
	}

	return rate, nil
}
