package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

func testBooking() *models.BookingDetails {
	return &models.BookingDetails{
		Booking: models.Booking{
			ID:         "bk-1",
			SeatNumber: 2,
			Price:      250000,
		},
		Trip: models.Trip{
			ZoneFrom:  "Saigon",
			ZoneTo:    "Dalat",
			StartTime: time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		},
		Vehicle:       models.Vehicle{VehicleNumber: 1},
		SeatPosition:  models.SeatPositionFront,
		CustomerName:  "Linh Tran",
		CustomerPhone: "+84901234567",
	}
}

func TestGatewaySendsMessage(t *testing.T) {
	var received messageRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(messageResponse{Status: "success"})
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{
		APIURL: server.URL,
		APIKey: "test-key",
		Sender: "LimoVN",
	}, logrus.New())

	err := gw.SendConfirmation(testBooking())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "sms", received.Channel)
	assert.Equal(t, "+84901234567", received.To)
	assert.Equal(t, "LimoVN", received.From)
	assert.Contains(t, received.Message, "Saigon -> Dalat")
	assert.Contains(t, received.Message, "seat 2")
}

func TestGatewaySendOtp(t *testing.T) {
	var received messageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(messageResponse{Status: "success"})
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{APIURL: server.URL, Sender: "LimoVN"}, logrus.New())

	err := gw.SendOtp("+84901234567", "482913", 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "sms", received.Channel)
	assert.Equal(t, "+84901234567", received.To)
	assert.Contains(t, received.Message, "482913")
	assert.Contains(t, received.Message, "5 minutes")
}

func TestGatewayVoiceCall(t *testing.T) {
	var received messageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{APIURL: server.URL}, logrus.New())

	err := gw.CallCustomer("+84901234567", "Your trip departs soon")
	require.NoError(t, err)
	assert.Equal(t, "voice", received.Channel)
	assert.Equal(t, "Your trip departs soon", received.Message)
}

func TestGatewayErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{APIURL: server.URL}, logrus.New())

	err := gw.SendReminder(testBooking())
	assert.Error(t, err)
}

func TestGatewayRejectedMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(messageResponse{Status: "failed", Comment: "invalid number"})
	}))
	defer server.Close()

	gw := NewGateway(GatewayConfig{APIURL: server.URL}, logrus.New())

	err := gw.SendCancellation(testBooking(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestGatewayDevModeSendsNothing(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	gw := NewGateway(GatewayConfig{APIURL: server.URL, Dev: true}, logger)

	require.NoError(t, gw.SendConfirmation(testBooking()))
	require.NoError(t, gw.CallCustomer("+84901234567", "hello"))
	assert.False(t, called)
}
