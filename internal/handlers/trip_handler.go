package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/models"
	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/services"
)

// TripHandler handles trip search and resolution endpoints
type TripHandler struct {
	tripService *services.TripService
	logger      *logrus.Logger
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripService *services.TripService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// SearchTrips lists open trips for a route on a day, with seat availability
// @Summary Search trips
// @Description List open trips for a route on a given day with live seat maps
// @Tags Trips
// @Produce json
// @Param zone_from query string true "Departure zone"
// @Param zone_to query string true "Arrival zone"
// @Param date query string true "Day to search (YYYY-MM-DD)"
// @Success 200 {array} models.AvailableTrip
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/v1/trips/search [get]
func (h *TripHandler) SearchTrips(c *gin.Context) {
	zoneFrom := c.Query("zone_from")
	zoneTo := c.Query("zone_to")
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}

	trips, err := h.tripService.Search(zoneFrom, zoneTo, day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// ResolveTrip finds or creates the trip for an exact departure
// @Summary Resolve a trip
// @Description Find or create the trip for a route and departure time, with seat availability
// @Tags Trips
// @Accept json
// @Produce json
// @Param request body models.TripKey true "Trip identity"
// @Success 200 {object} models.AvailableTrip
// @Failure 400 {object} map[string]interface{} "Invalid request or trip not bookable"
// @Failure 503 {object} map[string]interface{} "No vehicle available"
// @Router /api/v1/trips/resolve [post]
func (h *TripHandler) ResolveTrip(c *gin.Context) {
	var key models.TripKey
	if err := c.ShouldBindJSON(&key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trip, err := h.tripService.ResolveOrCreate(key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
