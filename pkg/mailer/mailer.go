// Package mailer sends booking confirmation emails through an HTTP email
// API. A dev-mode gateway logs instead of sending so local runs never
// email real customers.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Gateway sends transactional email
type Gateway interface {
	SendBookingConfirmation(msg *BookingConfirmation) error
	GetName() string
}

// BookingConfirmation holds everything the confirmation template needs
type BookingConfirmation struct {
	To            string
	CustomerName  string
	BookingID     string
	PackageName   string
	BookingDate   string
	BookingTime   string
	DepositAmount float64
	TotalAmount   float64
	Locale        string
}

// Config holds configuration for the HTTP email gateway
type Config struct {
	APIURL string
	APIKey string
	From   string
}

// HTTPGateway sends email through a Resend-style JSON API
type HTTPGateway struct {
	config Config
	logger *logrus.Logger
	client *http.Client
}

// NewHTTPGateway creates a new HTTP email gateway
func NewHTTPGateway(cfg Config, logger *logrus.Logger) *HTTPGateway {
	return &HTTPGateway{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest is the JSON body posted to the email API
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// sendResponse is the JSON body returned by the email API
type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// SendBookingConfirmation sends the confirmation email for a paid booking
func (g *HTTPGateway) SendBookingConfirmation(msg *BookingConfirmation) error {
	if g.config.APIKey == "" {
		return fmt.Errorf("email gateway not configured: missing API key")
	}

	request := sendRequest{
		From:    g.config.From,
		To:      []string{msg.To},
		Subject: confirmationSubject(msg),
		HTML:    confirmationBody(msg),
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.config.APIURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse email response: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"message_id": parsed.ID,
		"booking_id": msg.BookingID,
	}).Info("Confirmation email sent")

	return nil
}

// GetName returns the name of this email gateway
func (g *HTTPGateway) GetName() string {
	return "HTTP Email Gateway"
}

// DevGateway logs confirmation emails instead of sending them
type DevGateway struct {
	logger *logrus.Logger
}

// NewDevGateway creates a logging-only email gateway
func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

// SendBookingConfirmation logs the confirmation instead of sending it
func (g *DevGateway) SendBookingConfirmation(msg *BookingConfirmation) error {
	g.logger.WithFields(logrus.Fields{
		"to":         msg.To,
		"booking_id": msg.BookingID,
		"subject":    confirmationSubject(msg),
	}).Info("Dev mode: confirmation email logged, not sent")
	return nil
}

// GetName returns the name of this email gateway
func (g *DevGateway) GetName() string {
	return "Dev Email Gateway"
}

// confirmationSubject localizes the subject line. Unknown locales fall
// back to English.
func confirmationSubject(msg *BookingConfirmation) string {
	switch msg.Locale {
	case "tr":
		return fmt.Sprintf("Rezervasyonunuz onaylandı - %s", msg.PackageName)
	case "it":
		return fmt.Sprintf("La tua prenotazione è confermata - %s", msg.PackageName)
	default:
		return fmt.Sprintf("Your booking is confirmed - %s", msg.PackageName)
	}
}

// confirmationBody renders a minimal HTML confirmation
func confirmationBody(msg *BookingConfirmation) string {
	remaining := msg.TotalAmount - msg.DepositAmount
	return fmt.Sprintf(
		`<h2>Booking confirmed</h2>
<p>Dear %s,</p>
<p>Your %s photo shoot on %s at %s is confirmed.</p>
<p>Deposit paid: &euro;%.2f<br>Remaining balance due on the day: &euro;%.2f</p>
<p>Booking reference: %s</p>`,
		msg.CustomerName, msg.PackageName, msg.BookingDate, msg.BookingTime,
		msg.DepositAmount, remaining, msg.BookingID,
	)
}
