package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/services"
)

// BookingHandler handles the booking lifecycle endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// InitiateBooking allocates a seat and creates a PENDING booking
// @Summary Initiate a booking
// @Description Allocate a seat on a trip and hold it pending OTP verification
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.InitiateBookingRequest true "Booking request"
// @Success 201 {object} models.InitiateBookingResponse "Booking created, awaiting verification"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Seat already booked"
// @Failure 422 {object} map[string]interface{} "No seat available"
// @Failure 423 {object} map[string]interface{} "Seat currently locked"
// @Failure 503 {object} map[string]interface{} "No vehicle available"
// @Router /api/v1/bookings [post]
func (h *BookingHandler) InitiateBooking(c *gin.Context) {
	var req models.InitiateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.bookingService.Initiate(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VerifyBooking confirms a pending booking with its one-time code
// @Summary Verify a booking
// @Description Confirm a pending booking with the OTP sent to the customer
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.VerifyOtpRequest true "OTP"
// @Success 200 {object} models.BookingDetails "Booking confirmed"
// @Failure 401 {object} map[string]interface{} "Invalid or expired OTP"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 410 {object} map[string]interface{} "Booking expired"
// @Router /api/v1/bookings/{id}/verify [post]
func (h *BookingHandler) VerifyBooking(c *gin.Context) {
	var req models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	details, err := h.bookingService.VerifyAndConfirm(c.Request.Context(), c.Param("id"), req.Otp)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// ResendOTP reissues the one-time code for a pending booking
// @Summary Resend OTP
// @Description Issue a fresh OTP for a booking still awaiting verification
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.ResendOtpResponse "New OTP issued"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 410 {object} map[string]interface{} "Booking expired"
// @Router /api/v1/bookings/{id}/resend-otp [post]
func (h *BookingHandler) ResendOTP(c *gin.Context) {
	resp, err := h.bookingService.ResendOTP(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBooking returns a booking with trip, vehicle and customer details
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.BookingDetails
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	details, err := h.bookingService.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// CancelBooking releases a booking's seat
// @Summary Cancel a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking "Booking cancelled"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 410 {object} map[string]interface{} "Booking expired"
// @Router /api/v1/bookings/{id} [delete]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
