package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/rides"
	"github.com/Achess01/ComparteRide-platzi/pkg/logger"
	"github.com/Achess01/ComparteRide-platzi/prometheus"
)

// OfferRide creates a ride inside a circle; active members only
func (h *Handler) OfferRide(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordRideOperation("offer")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	membership, err := h.ledger.Get(c.Request().Context(), user.ID, circle.ID)
	if err != nil || !membership.Active {
		log.Warn("Ride offer from non-member blocked",
			zap.Uint("user_id", user.ID),
			zap.String("slug", circle.Slug))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "active membership required"})
	}

	var req struct {
		DepartureLocation string    `json:"departure_location"`
		ArrivalLocation   string    `json:"arrival_location"`
		DepartureDate     time.Time `json:"departure_date"`
		ArrivalDate       time.Time `json:"arrival_date"`
		AvailableSeats    uint      `json:"available_seats"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse ride offer request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	ride, err := h.rides.OfferRide(c.Request().Context(), rides.OfferRideInput{
		DepartureLocation: req.DepartureLocation,
		ArrivalLocation:   req.ArrivalLocation,
		DepartureDate:     req.DepartureDate,
		ArrivalDate:       req.ArrivalDate,
		AvailableSeats:    req.AvailableSeats,
	}, membership)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusCreated, ride)
}

// JoinRide seats the authenticated member on a ride of their circle
func (h *Handler) JoinRide(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordRideOperation("join")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	membership, err := h.ledger.Get(c.Request().Context(), user.ID, circle.ID)
	if err != nil || !membership.Active {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "active membership required"})
	}

	rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid ride ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	ride, err := h.rides.JoinRide(c.Request().Context(), uint(rideID), membership)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, ride)
}
