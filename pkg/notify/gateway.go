package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
)

// Gateway sends notifications through an HTTP messaging provider. In dev
// mode nothing leaves the process; messages are logged instead, the same
// way the provider would receive them.
type Gateway struct {
	apiURL string
	apiKey string
	sender string
	dev    bool
	client *http.Client
	logger *logrus.Logger
}

// GatewayConfig holds configuration for the notification gateway
type GatewayConfig struct {
	APIURL string
	APIKey string
	Sender string
	Dev    bool
}

// NewGateway creates a notification gateway client
func NewGateway(config GatewayConfig, logger *logrus.Logger) *Gateway {
	return &Gateway{
		apiURL: config.APIURL,
		apiKey: config.APIKey,
		sender: config.Sender,
		dev:    config.Dev,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type messageRequest struct {
	Channel string `json:"channel"` // "sms" or "voice"
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// SendOtp implements Notifier.
func (g *Gateway) SendOtp(phone, code string, validFor time.Duration) error {
	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(validFor.Minutes()))
	return g.send("sms", phone, msg)
}

// SendConfirmation implements Notifier.
func (g *Gateway) SendConfirmation(booking *models.BookingDetails) error {
	msg := fmt.Sprintf("Booking %s confirmed: %s -> %s, %s, vehicle %d, seat %d (%s). Price %d VND.",
		booking.ID, booking.Trip.ZoneFrom, booking.Trip.ZoneTo,
		booking.Trip.StartTime.Format("02 Jan 15:04"),
		booking.Vehicle.VehicleNumber, booking.SeatNumber, booking.SeatPosition, booking.Price)
	return g.send("sms", booking.CustomerPhone, msg)
}

// SendReminder implements Notifier.
func (g *Gateway) SendReminder(booking *models.BookingDetails) error {
	msg := fmt.Sprintf("Reminder: your trip %s -> %s departs at %s. Vehicle %d, seat %d. Please arrive 15 minutes early.",
		booking.Trip.ZoneFrom, booking.Trip.ZoneTo,
		booking.Trip.StartTime.Format("15:04"),
		booking.Vehicle.VehicleNumber, booking.SeatNumber)
	return g.send("sms", booking.CustomerPhone, msg)
}

// SendCancellation implements Notifier.
func (g *Gateway) SendCancellation(booking *models.BookingDetails, alternatives []models.Trip) error {
	msg := fmt.Sprintf("Your trip %s -> %s at %s was cancelled due to low occupancy.",
		booking.Trip.ZoneFrom, booking.Trip.ZoneTo, booking.Trip.StartTime.Format("02 Jan 15:04"))
	if len(alternatives) > 0 {
		msg += " Alternative departures:"
		for _, alt := range alternatives {
			msg += " " + alt.StartTime.Format("15:04")
		}
	}
	return g.send("sms", booking.CustomerPhone, msg)
}

// CallCustomer implements Notifier.
func (g *Gateway) CallCustomer(phone, message string) error {
	return g.send("voice", phone, message)
}

func (g *Gateway) send(channel, to, message string) error {
	if g.dev {
		g.logger.WithFields(logrus.Fields{
			"channel": channel,
			"to":      to,
			"message": message,
		}).Info("Notification (dev mode, not sent)")
		return nil
	}

	payload := messageRequest{
		Channel: channel,
		To:      to,
		From:    g.sender,
		Message: message,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read notification response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var msgResp messageResponse
	if err := json.Unmarshal(body, &msgResp); err == nil && msgResp.Status != "" && msgResp.Status != "success" {
		return fmt.Errorf("notification gateway rejected message: %s", msgResp.Comment)
	}
	return nil
}
