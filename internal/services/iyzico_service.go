package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
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

const iyzicoPaymentPath = "/payment/auth"

// demoTestCard is the only card number accepted when running without real
// gateway credentials
const demoTestCard = "5528790000000008"

// IyzicoService charges cards synchronously through the Iyzico payment API
type IyzicoService struct {
	config config.IyzicoConfig
	logger *logrus.Logger
	client *http.Client
}

// NewIyzicoService creates a new Iyzico payment service
func NewIyzicoService(cfg config.IyzicoConfig, logger *logrus.Logger) *IyzicoService {
	return &IyzicoService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IyzicoPaymentCard is the card block of a payment request
type IyzicoPaymentCard struct {
	CardHolderName string `json:"cardHolderName"`
	CardNumber     string `json:"cardNumber"`
	ExpireMonth    string `json:"expireMonth"`
	ExpireYear     string `json:"expireYear"`
	CVC            string `json:"cvc"`
	RegisterCard   int    `json:"registerCard"`
}

// IyzicoBuyer identifies the paying customer. Iyzico requires identity and
// address fields even for digital services, so placeholders are used where
// the booking flow does not collect them.
type IyzicoBuyer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	GSMNumber           string `json:"gsmNumber,omitempty"`
	Email               string `json:"email"`
	IdentityNumber      string `json:"identityNumber"`
	RegistrationAddress string `json:"registrationAddress"`
	IP                  string `json:"ip"`
	City                string `json:"city"`
	Country             string `json:"country"`
}

// IyzicoAddress is the billing/shipping address block
type IyzicoAddress struct {
	ContactName string `json:"contactName"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Address     string `json:"address"`
}

// IyzicoBasketItem describes one purchased item
type IyzicoBasketItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category1"`
	ItemType string `json:"itemType"`
	Price    string `json:"price"`
}

// IyzicoPaymentRequest is the body of a synchronous charge request
type IyzicoPaymentRequest struct {
	Locale         string             `json:"locale"`
	ConversationID string             `json:"conversationId"`
	Price          string             `json:"price"`
	PaidPrice      string             `json:"paidPrice"`
	Currency       string             `json:"currency"`
	Installment    int                `json:"installment"`
	PaymentChannel string             `json:"paymentChannel"`
	PaymentGroup   string             `json:"paymentGroup"`
	PaymentCard    IyzicoPaymentCard  `json:"paymentCard"`
	Buyer          IyzicoBuyer        `json:"buyer"`
	ShippingAddr   IyzicoAddress      `json:"shippingAddress"`
	BillingAddr    IyzicoAddress      `json:"billingAddress"`
	BasketItems    []IyzicoBasketItem `json:"basketItems"`
}

// IyzicoPaymentResponse is the body of a synchronous charge response
type IyzicoPaymentResponse struct {
	Status         string `json:"status"` // "success" or "failure"
	PaymentID      string `json:"paymentId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ErrorGroup     string `json:"errorGroup,omitempty"`
}

// ChargeParams carries everything needed for one card charge
type ChargeParams struct {
	ConversationID string
	AmountTRY      float64
	Card           models.CardData
	Customer       models.CustomerData
	CustomerIP     string
	PackageName    string
	Locale         string
}

// Charge performs a synchronous card charge. A declined card returns a
// ProviderError with the gateway's error code; an unreachable gateway
// returns a ProviderError with the transport code.
func (s *IyzicoService) Charge(params *ChargeParams) (*IyzicoPaymentResponse, error) {
	if s.demoMode() {
		return s.demoCharge(params)
	}

	priceStr := fmt.Sprintf("%.2f", params.AmountTRY)
	firstName, lastName := splitName(params.Customer.Name)
	if lastName == "" {
		lastName = "."
	}

	locale := params.Locale
	if locale == "" {
		locale = "en"
	}

	request := &IyzicoPaymentRequest{
		Locale:         locale,
		ConversationID: params.ConversationID,
		Price:          priceStr,
		PaidPrice:      priceStr,
		Currency:       "TRY",
		Installment:    1,
		PaymentChannel: "WEB",
		PaymentGroup:   "PRODUCT",
		PaymentCard: IyzicoPaymentCard{
			CardHolderName: params.Card.CardHolderName,
			CardNumber:     params.Card.NormalizedNumber(),
			ExpireMonth:    params.Card.ExpireMonth,
			ExpireYear:     params.Card.ExpireYear,
			CVC:            params.Card.CVC,
			RegisterCard:   0,
		},
		Buyer: IyzicoBuyer{
			ID:                  params.ConversationID,
			Name:                firstName,
			Surname:             lastName,
			GSMNumber:           params.Customer.Phone,
			Email:               params.Customer.Email,
			IdentityNumber:      "11111111111", // Not collected for photo bookings
			RegistrationAddress: "Istanbul",
			IP:                  params.CustomerIP,
			City:                "Istanbul",
			Country:             "Turkey",
		},
		ShippingAddr: IyzicoAddress{
			ContactName: params.Customer.Name,
			City:        "Istanbul",
			Country:     "Turkey",
			Address:     "Istanbul",
		},
		BillingAddr: IyzicoAddress{
			ContactName: params.Customer.Name,
			City:        "Istanbul",
			Country:     "Turkey",
			Address:     "Istanbul",
		},
		BasketItems: []IyzicoBasketItem{
			{
				ID:       params.ConversationID,
				Name:     params.PackageName,
				Category: "Photography",
				ItemType: "VIRTUAL",
				Price:    priceStr,
			},
		},
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	randomKey := generateRandomKey()
	authorization := s.buildAuthorizationHeader(randomKey, iyzicoPaymentPath, jsonBody)

	s.logger.WithFields(logrus.Fields{
		"conversation_id": params.ConversationID,
		"amount_try":      priceStr,
	}).Info("Initiating Iyzico charge")

	url := s.config.BaseURL + iyzicoPaymentPath
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", authorization)
	req.Header.Set("x-iyzi-rnd", randomKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to reach Iyzico gateway")
		return nil, &models.ProviderError{
			Provider: models.ProviderIyzico,
			Code:     models.ProviderErrorCodeUnreachable,
			Message:  "payment gateway unreachable",
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment response: %w", err)
	}

	var paymentResp IyzicoPaymentResponse
	if err := json.Unmarshal(body, &paymentResp); err != nil {
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("Failed to parse Iyzico response")
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}

	if paymentResp.Status != "success" {
		s.logger.WithFields(logrus.Fields{
			"conversation_id": params.ConversationID,
			"error_code":      paymentResp.ErrorCode,
			"error_group":     paymentResp.ErrorGroup,
		}).Warn("Iyzico charge declined")
		return &paymentResp, &models.ProviderError{
			Provider: models.ProviderIyzico,
			Code:     paymentResp.ErrorCode,
			Message:  paymentResp.ErrorMessage,
		}
	}

	s.logger.WithFields(logrus.Fields{
		"conversation_id": params.ConversationID,
		"payment_id":      paymentResp.PaymentID,
	}).Info("Iyzico charge succeeded")

	return &paymentResp, nil
}

// buildAuthorizationHeader computes the IYZWSv2 header.
// signature = hex(HMAC-SHA256(randomKey + uriPath + requestBody, secretKey))
// header    = "IYZWSv2 " + base64("apiKey:KEY&randomKey:RND&signature:SIG")
func (s *IyzicoService) buildAuthorizationHeader(randomKey, uriPath string, body []byte) string {
	payload := randomKey + uriPath + string(body)

	mac := hmac.New(sha256.New, []byte(s.config.SecretKey))
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))

	authString := fmt.Sprintf("apiKey:%s&randomKey:%s&signature:%s",
		s.config.APIKey, randomKey, signature)

	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(authString))
}

// demoMode reports whether the service should simulate charges instead of
// calling the gateway. Real credentials always win over the demo flag.
func (s *IyzicoService) demoMode() bool {
	if s.config.APIKey != "" && s.config.SecretKey != "" {
		return false
	}
	return s.config.AllowDemoMode
}

// demoCharge simulates the gateway. Only the published test card succeeds,
// so the rest of the pipeline can be exercised without credentials.
func (s *IyzicoService) demoCharge(params *ChargeParams) (*IyzicoPaymentResponse, error) {
	s.logger.WithField("conversation_id", params.ConversationID).
		Warn("Iyzico running in demo mode, no real charge performed")

	if params.Card.NormalizedNumber() != demoTestCard {
		resp := &IyzicoPaymentResponse{
			Status:         "failure",
			ConversationID: params.ConversationID,
			ErrorCode:      "10051",
			ErrorMessage:   "Card declined (demo mode accepts only the test card)",
		}
		return resp, &models.ProviderError{
			Provider: models.ProviderIyzico,
			Code:     resp.ErrorCode,
			Message:  resp.ErrorMessage,
		}
	}

	return &IyzicoPaymentResponse{
		Status:         "success",
		PaymentID:      fmt.Sprintf("demo-%d", time.Now().UnixMicro()),
		ConversationID: params.ConversationID,
	}, nil
}

// generateRandomKey produces the per-request random component of the
// signature. Falls back to a timestamp if the system RNG fails.
func generateRandomKey() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// splitName splits a full name into first and last name
func splitName(fullName string) (firstName, lastName string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "Customer", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
