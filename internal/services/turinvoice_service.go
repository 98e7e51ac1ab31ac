package services

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/models"
)

// TurinvoiceService creates hosted payment orders on Turinvoice. The
// customer completes payment on the provider's page; the outcome arrives
// asynchronously via webhook.
type TurinvoiceService struct {
	config config.TurinvoiceConfig
	logger *logrus.Logger
	client *http.Client
}

// NewTurinvoiceService creates a new Turinvoice payment service
func NewTurinvoiceService(cfg config.TurinvoiceConfig, logger *logrus.Logger) *TurinvoiceService {
	return &TurinvoiceService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TurinvoiceOrderRequest is the body of an order creation request
type TurinvoiceOrderRequest struct {
	Amount        float64 `json:"amount"` // TRY
	Currency      string  `json:"currency"`
	Description   string  `json:"description"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	ReturnURL     string  `json:"return_url,omitempty"`
}

// TurinvoiceOrderResponse is the body of an order creation response
type TurinvoiceOrderResponse struct {
	IDOrder    string  `json:"id_order"`
	PaymentURL string  `json:"url"`
	State      string  `json:"state"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Message    string  `json:"message,omitempty"`
}

// CreateOrderParams carries everything needed to open a hosted order
type CreateOrderParams struct {
	AmountTRY   float64
	Description string
	Customer    models.CustomerData
}

// CreateOrder opens a hosted payment order and returns the redirect URL
func (s *TurinvoiceService) CreateOrder(params *CreateOrderParams) (*TurinvoiceOrderResponse, error) {
	request := &TurinvoiceOrderRequest{
		Amount:        params.AmountTRY,
		Currency:      "TRY",
		Description:   params.Description,
		CustomerName:  params.Customer.Name,
		CustomerEmail: params.Customer.Email,
		ReturnURL:     s.config.ReturnURL,
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"amount_try": params.AmountTRY,
	}).Info("Creating Turinvoice order")

	url := s.config.BaseURL + "/api/orders"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to reach Turinvoice gateway")
		return nil, &models.ProviderError{
			Provider: models.ProviderTurinvoice,
			Code:     models.ProviderErrorCodeUnreachable,
			Message:  "payment gateway unreachable",
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Warn("Turinvoice order creation rejected")
		return nil, &models.ProviderError{
			Provider: models.ProviderTurinvoice,
			Code:     fmt.Sprintf("http_%d", resp.StatusCode),
			Message:  strings.TrimSpace(string(body)),
		}
	}

	var orderResp TurinvoiceOrderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	if orderResp.IDOrder == "" || orderResp.PaymentURL == "" {
		return nil, &models.ProviderError{
			Provider: models.ProviderTurinvoice,
			Code:     "invalid_response",
			Message:  "order response missing id or payment url",
		}
	}

	s.logger.WithFields(logrus.Fields{
		"id_order": orderResp.IDOrder,
		"state":    orderResp.State,
	}).Info("Turinvoice order created")

	return &orderResp, nil
}

// VerifyWebhookSecret compares the webhook secret in constant time
func (s *TurinvoiceService) VerifyWebhookSecret(secret string) bool {
	if s.config.WebhookSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.WebhookSecret)) == 1
}

// IsPaid reports whether an order state means the payment completed
func (s *TurinvoiceService) IsPaid(state string) bool {
	return strings.EqualFold(state, "paid")
}
