package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/database"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/pkg/mailer"
)

// duplicateWindow is how long an identical booking request counts as a
// duplicate rather than a new booking
const duplicateWindow = 5 * time.Minute

// RequestMeta carries client metadata captured by the HTTP layer for the
// payment audit trail
type RequestMeta struct {
	IP         string
	UserAgent  string
	DeviceType string
}

// BookingService orchestrates the draft -> payment -> confirmation flow
type BookingService struct {
	bookingRepo  *database.BookingRepository
	customerRepo *database.CustomerRepository
	paymentRepo  *database.PaymentRepository
	auditRepo    *database.PaymentAuditRepository
	pricing      *PricingService
	exchange     *ExchangeRateService
	iyzico       *IyzicoService
	turinvoice   *TurinvoiceService
	mail         mailer.Gateway
	logger       *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo *database.BookingRepository,
	customerRepo *database.CustomerRepository,
	paymentRepo *database.PaymentRepository,
	auditRepo *database.PaymentAuditRepository,
	pricing *PricingService,
	exchange *ExchangeRateService,
	iyzico *IyzicoService,
	turinvoice *TurinvoiceService,
	mail mailer.Gateway,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		customerRepo: customerRepo,
		paymentRepo:  paymentRepo,
		auditRepo:    auditRepo,
		pricing:      pricing,
		exchange:     exchange,
		iyzico:       iyzico,
		turinvoice:   turinvoice,
		mail:         mail,
		logger:       logger,
	}
}

// CreateDraft validates a booking request, recomputes the price server
// side, guards against rapid duplicates, and stores a draft booking
func (s *BookingService) CreateDraft(req *models.CreateBookingRequest) (*models.Booking, error) {
	// 1. Structural validation
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return nil, models.NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}

	// 2. The client total is advisory; recompute and compare
	people := 0
	if req.PeopleCount != nil {
		people = *req.PeopleCount
	}
	quote, err := s.pricing.VerifyTotal(req.PackageID, bookingDate, people, req.TotalAmount)
	if err != nil {
		return nil, err
	}

	// 3. Duplicate guard: identical request within the window
	existing, err := s.bookingRepo.FindRecentDuplicate(
		req.CustomerEmail, req.PackageID, req.BookingDate, req.BookingTime, duplicateWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return nil, &models.DuplicateBookingError{ExistingBookingID: existing.ID}
	}

	// 4. Keep the customer record current
	customer := &models.Customer{
		Email: req.CustomerEmail,
		Name:  req.CustomerName,
		Phone: req.CustomerPhone,
	}
	if err := s.customerRepo.UpsertByEmail(customer); err != nil {
		return nil, err
	}

	// 5. Store the draft with the server-computed total
	booking := &models.Booking{
		PackageID:     req.PackageID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		BookingDate:   req.BookingDate,
		BookingTime:   req.BookingTime,
		Status:        models.BookingStatusDraft,
		TotalAmount:   quote.Price,
		PeopleCount:   req.PeopleCount,
		Notes:         req.Notes,
		Locale:        req.Locale,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"package_id":   booking.PackageID,
		"total_amount": booking.TotalAmount,
	}).Info("Draft booking created")

	return booking, nil
}

// InitializeCardPayment charges the deposit synchronously through Iyzico.
// A decline returns a response with Success=false and no error; transport
// and validation failures return an error.
func (s *BookingService) InitializeCardPayment(req *models.InitializeCardPaymentRequest, meta RequestMeta) (*models.CardPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return nil, models.NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}

	people := 0
	if req.PeopleCount != nil {
		people = *req.PeopleCount
	}
	quote, err := s.pricing.VerifyDeposit(req.PackageID, bookingDate, people, req.Amount)
	if err != nil {
		return nil, err
	}

	booking, err := s.resolveBooking(req.BookingID)
	if err != nil {
		return nil, err
	}

	amountTRY, rate := s.exchange.Convert(quote.DepositAmount)
	conversationID := uuid.New().String()

	payment := &models.Payment{
		Provider:       models.ProviderIyzico,
		ConversationID: conversationID,
		Status:         models.PaymentStatusPending,
		Amount:         quote.DepositAmount,
		Currency:       "EUR",
		ProviderResponse: models.JSONB{
			"amount_try":    amountTRY,
			"exchange_rate": rate,
		},
	}
	if booking != nil {
		payment.BookingID = &booking.ID
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	s.auditPaymentEvent(models.PaymentEventInitiated, models.PaymentSourceBackend, payment, meta, func(a *models.PaymentAudit) {
		a.ExpectedAmount = &quote.DepositAmount
		a.RequestPayload = models.JSONB{
			"package_id":   string(req.PackageID),
			"amount_eur":   quote.DepositAmount,
			"amount_try":   amountTRY,
			"conversation": conversationID,
		}
	})

	chargeResp, chargeErr := s.iyzico.Charge(&ChargeParams{
		ConversationID: conversationID,
		AmountTRY:      amountTRY,
		Card:           req.PaymentData,
		Customer:       req.CustomerData,
		CustomerIP:     meta.IP,
		PackageName:    quote.DisplayName,
		Locale:         req.Locale,
	})

	response := &models.CardPaymentResponse{
		ConversationID: conversationID,
		AmountEUR:      quote.DepositAmount,
		AmountTRY:      amountTRY,
		ExchangeRate:   rate,
	}
	if booking != nil {
		response.BookingID = booking.ID
	}

	if chargeErr != nil {
		return s.handleCardFailure(payment, chargeResp, chargeErr, response, meta)
	}

	// Charge succeeded: settle the payment and confirm the booking
	var providerPaymentID *string
	if chargeResp.PaymentID != "" {
		providerPaymentID = &chargeResp.PaymentID
	}
	if _, err := s.paymentRepo.MarkSuccessIfPending(payment.ID, providerPaymentID, models.JSONB{
		"status":     chargeResp.Status,
		"payment_id": chargeResp.PaymentID,
	}); err != nil {
		return nil, err
	}

	s.auditPaymentEvent(models.PaymentEventSuccess, models.PaymentSourceIyzicoAPI, payment, meta, func(a *models.PaymentAudit) {
		a.ReceivedAmount = &amountTRY
		if providerPaymentID != nil {
			a.ResponsePayload = models.JSONB{"payment_id": *providerPaymentID}
		}
	})

	if booking != nil {
		s.confirmAndNotify(booking, quote.DepositAmount, meta)
	}

	response.Success = true
	response.Status = "success"
	response.PaymentID = chargeResp.PaymentID
	return response, nil
}

// handleCardFailure settles a failed charge. Business declines come back
// as a non-error response so the frontend can show the gateway message;
// transport failures propagate.
func (s *BookingService) handleCardFailure(
	payment *models.Payment,
	chargeResp *IyzicoPaymentResponse,
	chargeErr error,
	response *models.CardPaymentResponse,
	meta RequestMeta,
) (*models.CardPaymentResponse, error) {
	failureResponse := models.JSONB{}
	if chargeResp != nil {
		failureResponse["error_code"] = chargeResp.ErrorCode
		failureResponse["error_message"] = chargeResp.ErrorMessage
	}
	if _, err := s.paymentRepo.MarkFailureIfPending(payment.ID, failureResponse); err != nil {
		s.logger.WithError(err).Error("Failed to record payment failure")
	}

	errMsg := chargeErr.Error()
	s.auditPaymentEvent(models.PaymentEventFailed, models.PaymentSourceIyzicoAPI, payment, meta, func(a *models.PaymentAudit) {
		a.ErrorMessage = &errMsg
		if chargeResp != nil && chargeResp.ErrorCode != "" {
			a.ErrorCode = &chargeResp.ErrorCode
		}
	})

	providerErr, ok := chargeErr.(*models.ProviderError)
	if !ok || providerErr.IsTransport() {
		return nil, chargeErr
	}

	response.Success = false
	response.Status = "failure"
	response.ErrorCode = providerErr.Code
	response.ErrorMessage = providerErr.Message
	return response, nil
}

// InitializeRedirectPayment opens a Turinvoice hosted order and records a
// pending payment that the webhook will settle later
func (s *BookingService) InitializeRedirectPayment(req *models.InitializeRedirectPaymentRequest, meta RequestMeta) (*models.RedirectPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return nil, models.NewValidationError("bookingDate", "must be YYYY-MM-DD")
	}

	people := 0
	if req.PeopleCount != nil {
		people = *req.PeopleCount
	}
	quote, err := s.pricing.VerifyDeposit(req.PackageID, bookingDate, people, req.Amount)
	if err != nil {
		return nil, err
	}

	booking, err := s.resolveBooking(req.BookingID)
	if err != nil {
		return nil, err
	}

	amountTRY, rate := s.exchange.Convert(quote.DepositAmount)

	order, err := s.turinvoice.CreateOrder(&CreateOrderParams{
		AmountTRY:   amountTRY,
		Description: fmt.Sprintf("%s photo shoot deposit (%s)", quote.DisplayName, req.BookingDate),
		Customer:    req.CustomerData,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Provider:        models.ProviderTurinvoice,
		ProviderOrderID: &order.IDOrder,
		ConversationID:  uuid.New().String(),
		Status:          models.PaymentStatusPending,
		Amount:          quote.DepositAmount,
		Currency:        "EUR",
		ProviderResponse: models.JSONB{
			"amount_try":    amountTRY,
			"exchange_rate": rate,
			"state":         order.State,
		},
	}
	if booking != nil {
		payment.BookingID = &booking.ID
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	s.auditPaymentEvent(models.PaymentEventInitiated, models.PaymentSourceTurinvoiceAPI, payment, meta, func(a *models.PaymentAudit) {
		a.ExpectedAmount = &quote.DepositAmount
		a.ProviderOrderID = &order.IDOrder
		a.ResponsePayload = models.JSONB{"id_order": order.IDOrder, "state": order.State}
	})

	s.logger.WithFields(logrus.Fields{
		"id_order":   order.IDOrder,
		"amount_try": amountTRY,
	}).Info("Turinvoice payment initialized")

	return &models.RedirectPaymentResponse{
		Success:      true,
		IDOrder:      order.IDOrder,
		PaymentURL:   order.PaymentURL,
		AmountEUR:    quote.DepositAmount,
		AmountTRY:    amountTRY,
		ExchangeRate: rate,
		Currency:     "TRY",
		State:        order.State,
	}, nil
}

// HandleTurinvoiceWebhook settles an asynchronous payment. Replays and
// unknown orders are acknowledged without side effects; only a bad secret
// is an error.
func (s *BookingService) HandleTurinvoiceWebhook(payload *models.TurinvoiceWebhookPayload, rawBody string, meta RequestMeta) error {
	if !s.turinvoice.VerifyWebhookSecret(payload.SecretKey) {
		s.auditWebhookEvent(models.PaymentEventWebhookRejected, payload, rawBody, meta, nil)
		return &models.WebhookAuthError{Provider: models.ProviderTurinvoice}
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if !s.turinvoice.IsPaid(payload.State) {
		s.logger.WithFields(logrus.Fields{
			"id_order": payload.ID,
			"state":    payload.State,
		}).Info("Ignoring non-paid webhook state")
		return nil
	}

	payment, err := s.paymentRepo.GetByProviderOrderID(payload.ID)
	if err != nil {
		return err
	}
	if payment == nil {
		// The provider can deliver before the payment row lands, or for an
		// order this system never created. Acknowledge so the provider
		// stops retrying; the audit row preserves the evidence.
		s.logger.WithField("id_order", payload.ID).Warn("Webhook for unknown order acknowledged")
		s.auditWebhookEvent(models.PaymentEventWebhookReceived, payload, rawBody, meta, nil)
		return nil
	}

	s.auditWebhookEvent(models.PaymentEventWebhookReceived, payload, rawBody, meta, payment)

	// Cross-check the provider's TRY amount against what the order was
	// opened with
	if expectedTRY, ok := paymentAmountTRY(payment); ok && payload.Amount > 0 {
		if math.Abs(expectedTRY-payload.Amount) > 0.01 {
			s.auditAmountMismatch(payment, expectedTRY, payload.Amount, meta)
			s.logger.WithFields(logrus.Fields{
				"id_order": payload.ID,
				"expected": expectedTRY,
				"received": payload.Amount,
			}).Error("Webhook amount mismatch, payment left pending")
			return nil
		}
	}

	transitioned, err := s.paymentRepo.MarkSuccessIfPending(payment.ID, nil, models.JSONB{
		"state":          payload.State,
		"webhook_amount": payload.Amount,
	})
	if err != nil {
		return err
	}
	if !transitioned {
		// Replay of an already settled payment
		s.logger.WithField("id_order", payload.ID).Info("Webhook replay ignored")
		return nil
	}

	s.auditPaymentEvent(models.PaymentEventSuccess, models.PaymentSourceTurinvoiceWebhook, payment, meta, func(a *models.PaymentAudit) {
		a.ReceivedAmount = &payload.Amount
		a.ProviderOrderID = &payload.ID
	})

	if payment.BookingID != nil {
		booking, err := s.bookingRepo.GetByID(*payment.BookingID)
		if err != nil {
			return err
		}
		if booking != nil {
			s.confirmAndNotify(booking, payment.Amount, meta)
		}
	}

	return nil
}

// GetPaymentStatus returns a payment by conversation id for the frontend
// polling endpoint
func (s *BookingService) GetPaymentStatus(conversationID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, &models.NotFoundError{Entity: "payment", ID: conversationID}
	}
	return payment, nil
}

// resolveBooking loads the referenced booking, if any. A payment may
// precede its booking record, so a nil id is not an error.
func (s *BookingService) resolveBooking(bookingID *string) (*models.Booking, error) {
	if bookingID == nil || *bookingID == "" {
		return nil, nil
	}

	booking, err := s.bookingRepo.GetByID(*bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &models.NotFoundError{Entity: "booking", ID: *bookingID}
	}
	return booking, nil
}

// confirmAndNotify promotes the booking to confirmed and sends the
// confirmation email exactly once. Email failures never fail the payment.
func (s *BookingService) confirmAndNotify(booking *models.Booking, depositAmount float64, meta RequestMeta) {
	promoted, err := s.bookingRepo.ConfirmIfNotConfirmed(booking.ID)
	if err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to confirm booking")
		return
	}
	if !promoted {
		return
	}

	s.auditBookingConfirmed(booking, meta)

	quote, err := s.packageDisplayName(booking)
	if err != nil {
		s.logger.WithError(err).Warn("Could not resolve package name for email")
	}

	if err := s.mail.SendBookingConfirmation(&mailer.BookingConfirmation{
		To:            booking.CustomerEmail,
		CustomerName:  booking.CustomerName,
		BookingID:     booking.ID,
		PackageName:   quote,
		BookingDate:   booking.BookingDate,
		BookingTime:   booking.BookingTime,
		DepositAmount: depositAmount,
		TotalAmount:   booking.TotalAmount,
		Locale:        booking.Locale,
	}); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).
			Error("Confirmation email failed, booking stays confirmed")
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking confirmed")
}

func (s *BookingService) packageDisplayName(booking *models.Booking) (string, error) {
	def, ok := packageCatalog[booking.PackageID]
	if !ok {
		return string(booking.PackageID), fmt.Errorf("unknown package %s", booking.PackageID)
	}
	return def.DisplayName, nil
}

// paymentAmountTRY extracts the TRY amount the order was opened with
func paymentAmountTRY(payment *models.Payment) (float64, bool) {
	if payment.ProviderResponse == nil {
		return 0, false
	}
	v, ok := payment.ProviderResponse["amount_try"]
	if !ok {
		return 0, false
	}
	amount, ok := v.(float64)
	return amount, ok
}

// auditPaymentEvent writes a payment audit row; failures are logged and
// swallowed so auditing never breaks the payment flow
func (s *BookingService) auditPaymentEvent(
	eventType models.PaymentEventType,
	source models.PaymentEventSource,
	payment *models.Payment,
	meta RequestMeta,
	fill func(*models.PaymentAudit),
) {
	audit := models.NewPaymentAudit(eventType, source)
	paymentID := payment.ID.String()
	audit.PaymentID = &paymentID
	audit.BookingID = payment.BookingID
	currency := payment.Currency
	audit.Currency = &currency
	applyMeta(audit, meta)
	if fill != nil {
		fill(audit)
	}

	if err := s.auditRepo.Log(audit); err != nil {
		s.logger.WithError(err).Error("Payment audit write failed")
	}
}

// auditWebhookEvent records an incoming webhook, keeping the raw body
func (s *BookingService) auditWebhookEvent(
	eventType models.PaymentEventType,
	payload *models.TurinvoiceWebhookPayload,
	rawBody string,
	meta RequestMeta,
	payment *models.Payment,
) {
	audit := models.NewPaymentAudit(eventType, models.PaymentSourceTurinvoiceWebhook)
	audit.ProviderOrderID = &payload.ID
	state := payload.State
	audit.PaymentStatus = &state
	audit.RawBody = &rawBody
	audit.ReceivedAmount = &payload.Amount
	if payment != nil {
		paymentID := payment.ID.String()
		audit.PaymentID = &paymentID
		audit.BookingID = payment.BookingID
	}
	applyMeta(audit, meta)

	if err := s.auditRepo.Log(audit); err != nil {
		s.logger.WithError(err).Error("Webhook audit write failed")
	}
}

func (s *BookingService) auditAmountMismatch(payment *models.Payment, expected, received float64, meta RequestMeta) {
	mismatch := false
	s.auditPaymentEvent(models.PaymentEventAmountMismatch, models.PaymentSourceTurinvoiceWebhook, payment, meta, func(a *models.PaymentAudit) {
		a.ExpectedAmount = &expected
		a.ReceivedAmount = &received
		a.AmountsMatch = &mismatch
	})
}

func (s *BookingService) auditBookingConfirmed(booking *models.Booking, meta RequestMeta) {
	audit := models.NewPaymentAudit(models.PaymentEventBookingConfirmed, models.PaymentSourceBackend)
	audit.BookingID = &booking.ID
	applyMeta(audit, meta)

	if err := s.auditRepo.Log(audit); err != nil {
		s.logger.WithError(err).Error("Confirmation audit write failed")
	}
}

func applyMeta(audit *models.PaymentAudit, meta RequestMeta) {
	if meta.IP != "" {
		audit.IPAddress = &meta.IP
	}
	if meta.UserAgent != "" {
		audit.UserAgent = &meta.UserAgent
	}
	if meta.DeviceType != "" {
		audit.DeviceType = &meta.DeviceType
	}
}
