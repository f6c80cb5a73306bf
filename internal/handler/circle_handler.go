package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/permissions"
	"github.com/Achess01/ComparteRide-platzi/pkg/logger"
	"github.com/Achess01/ComparteRide-platzi/prometheus"
)

// CreateCircle handles circle creation; the founder becomes the first
// admin member in the same transaction.
func (h *Handler) CreateCircle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCircleOperation("create")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name         string `json:"name"`
		Slug         string `json:"slug"`
		About        string `json:"about"`
		IsPublic     *bool  `json:"is_public"`
		IsLimited    bool   `json:"is_limited"`
		MembersLimit uint   `json:"members_limit"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse circle creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	circle, membership, err := h.directory.CreateCircle(c.Request().Context(), circles.CreateCircleInput{
		Name:         req.Name,
		Slug:         req.Slug,
		About:        req.About,
		IsPublic:     isPublic,
		IsLimited:    req.IsLimited,
		MembersLimit: req.MembersLimit,
	}, user)
	if err != nil {
		return h.domainError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"circle":     circle,
		"membership": membership,
	})
}

// ListCircles returns a page of public circles
func (h *Handler) ListCircles(c echo.Context) error {
	prometheus.RecordCircleOperation("list")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	defer prometheus.TrackDBOperation("query")(time.Now())

	list, err := h.directory.ListPublic(c.Request().Context(), limit, offset)
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"circles": list})
}

// GetCircle returns circle details; private circles require an active
// membership.
func (h *Handler) GetCircle(c echo.Context) error {
	prometheus.RecordCircleOperation("access")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}

	if !circle.IsPublic {
		member, err := permissions.IsActiveCircleMember(c.Request().Context(), h.ledger, user, circle)
		if err != nil {
			return h.domainError(c, err)
		}
		if !member {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
	}
	return c.JSON(http.StatusOK, circle)
}

// UpdateCircle applies admin edits to a circle
func (h *Handler) UpdateCircle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCircleOperation("update")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	membership, err := h.ledger.Get(c.Request().Context(), user.ID, circle.ID)
	if err != nil || !permissions.IsCircleAdmin(membership) {
		log.Warn("Unauthorized circle update attempt",
			zap.Uint("user_id", user.ID),
			zap.String("slug", circle.Slug))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "circle admin required"})
	}

	var req struct {
		Name         *string `json:"name"`
		About        *string `json:"about"`
		IsPublic     *bool   `json:"is_public"`
		IsLimited    *bool   `json:"is_limited"`
		MembersLimit *uint   `json:"members_limit"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse circle update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	updated, err := h.directory.Update(c.Request().Context(), circle.Slug, circles.UpdateCircleInput{
		Name:         req.Name,
		About:        req.About,
		IsPublic:     req.IsPublic,
		IsLimited:    req.IsLimited,
		MembersLimit: req.MembersLimit,
	})
	if err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeactivateCircle soft-deactivates a circle; circles are never deleted
func (h *Handler) DeactivateCircle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordCircleOperation("deactivate")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	membership, err := h.ledger.Get(c.Request().Context(), user.ID, circle.ID)
	if err != nil || !permissions.IsCircleAdmin(membership) {
		log.Warn("Unauthorized circle deactivation attempt",
			zap.Uint("user_id", user.ID),
			zap.String("slug", circle.Slug))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "circle admin required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if _, err := h.directory.Deactivate(c.Request().Context(), circle.Slug); err != nil {
		return h.domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Circle deactivated"})
}
