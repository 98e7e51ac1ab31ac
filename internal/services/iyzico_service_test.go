package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vistalens/booking-backend/internal/config"
	"github.com/vistalens/booking-backend/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testCard(number string) models.CardData {
	return models.CardData{
		CardHolderName: "Jane Doe",
		CardNumber:     number,
		ExpireMonth:    "12",
		ExpireYear:     "2030",
		CVC:            "123",
	}
}

func testChargeParams(cardNumber string) *ChargeParams {
	return &ChargeParams{
		ConversationID: "conv-123",
		AmountTRY:      2737.50,
		Card:           testCard(cardNumber),
		Customer: models.CustomerData{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Phone: "+905551112233",
		},
		CustomerIP:  "203.0.113.7",
		PackageName: "Premium",
	}
}

func TestBuildAuthorizationHeader(t *testing.T) {
	svc := NewIyzicoService(config.IyzicoConfig{
		APIKey:    "test-api-key",
		SecretKey: "test-secret",
	}, testLogger())

	body := []byte(`{"price":"100.00"}`)
	header := svc.buildAuthorizationHeader("rnd-1", "/payment/auth", body)

	require.True(t, strings.HasPrefix(header, "IYZWSv2 "))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "IYZWSv2 "))
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte("rnd-1/payment/auth" + string(body)))
	wantSignature := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t,
		"apiKey:test-api-key&randomKey:rnd-1&signature:"+wantSignature,
		string(decoded))
}

func TestChargeDemoMode(t *testing.T) {
	svc := NewIyzicoService(config.IyzicoConfig{
		AllowDemoMode: true,
	}, testLogger())

	t.Run("Test Card Succeeds", func(t *testing.T) {
		resp, err := svc.Charge(testChargeParams("5528790000000008"))
		require.NoError(t, err)
		assert.Equal(t, "success", resp.Status)
		assert.NotEmpty(t, resp.PaymentID)
	})

	t.Run("Test Card With Spaces Succeeds", func(t *testing.T) {
		resp, err := svc.Charge(testChargeParams("5528 7900 0000 0008"))
		require.NoError(t, err)
		assert.Equal(t, "success", resp.Status)
	})

	t.Run("Other Cards Decline", func(t *testing.T) {
		resp, err := svc.Charge(testChargeParams("4111111111111111"))
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "failure", resp.Status)

		var providerErr *models.ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, models.ProviderIyzico, providerErr.Provider)
		assert.False(t, providerErr.IsTransport())
	})

	t.Run("Demo Disabled Without Credentials Calls Gateway", func(t *testing.T) {
		noDemo := NewIyzicoService(config.IyzicoConfig{
			BaseURL:       "http://127.0.0.1:1", // nothing listens here
			AllowDemoMode: false,
		}, testLogger())

		_, err := noDemo.Charge(testChargeParams("5528790000000008"))
		require.Error(t, err)

		var providerErr *models.ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.True(t, providerErr.IsTransport())
	})
}

func TestChargeAgainstGateway(t *testing.T) {
	t.Run("Success Response", func(t *testing.T) {
		var gotAuth string
		var gotRequest IyzicoPaymentRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

			json.NewEncoder(w).Encode(IyzicoPaymentResponse{
				Status:         "success",
				PaymentID:      "pay-789",
				ConversationID: gotRequest.ConversationID,
			})
		}))
		defer server.Close()

		svc := NewIyzicoService(config.IyzicoConfig{
			BaseURL:   server.URL,
			APIKey:    "test-api-key",
			SecretKey: "test-secret",
		}, testLogger())

		resp, err := svc.Charge(testChargeParams("4111111111111111"))
		require.NoError(t, err)
		assert.Equal(t, "pay-789", resp.PaymentID)

		assert.True(t, strings.HasPrefix(gotAuth, "IYZWSv2 "))
		assert.Equal(t, "2737.50", gotRequest.Price)
		assert.Equal(t, "TRY", gotRequest.Currency)
		assert.Equal(t, "4111111111111111", gotRequest.PaymentCard.CardNumber)
		require.Len(t, gotRequest.BasketItems, 1)
		assert.Equal(t, "Premium", gotRequest.BasketItems[0].Name)
	})

	t.Run("Decline Response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(IyzicoPaymentResponse{
				Status:       "failure",
				ErrorCode:    "10051",
				ErrorMessage: "Insufficient funds",
			})
		}))
		defer server.Close()

		svc := NewIyzicoService(config.IyzicoConfig{
			BaseURL:   server.URL,
			APIKey:    "test-api-key",
			SecretKey: "test-secret",
		}, testLogger())

		resp, err := svc.Charge(testChargeParams("4111111111111111"))
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "10051", resp.ErrorCode)

		var providerErr *models.ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "10051", providerErr.Code)
		assert.False(t, providerErr.IsTransport())
	})
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Jane Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = splitName("Jane Mary van Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Mary van Doe", last)

	first, last = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)

	first, last = splitName("")
	assert.Equal(t, "Customer", first)
	assert.Empty(t, last)
}
