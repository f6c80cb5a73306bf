package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/permissions"
	"github.com/Achess01/ComparteRide-platzi/pkg/logger"
	"github.com/Achess01/ComparteRide-platzi/prometheus"
)

// MemberInvitations lists a member's unused invitation codes,
// generating them first when none exist. Only the member themselves may
// see their codes.
func (h *Handler) MemberInvitations(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordInvitationOperation("list")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	target, err := h.userByUsername(c)
	if err != nil {
		return h.domainError(c, err)
	}

	if !permissions.IsSelf(user, target) {
		log.Warn("Invitation listing for another member blocked",
			zap.Uint("requester_id", user.ID),
			zap.Uint("target_id", target.ID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	membership, err := h.ledger.Get(c.Request().Context(), target.ID, circle.ID)
	if err != nil {
		return h.domainError(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	invitationList, created, err := h.invitations.IssuePending(c.Request().Context(), membership)
	if err != nil {
		return h.domainError(c, err)
	}
	if created > 0 {
		prometheus.RecordInvitationOperation("issue")
		prometheus.AddOutstandingInvitations(float64(created))
	}

	codes := make([]string, len(invitationList))
	for i, inv := range invitationList {
		codes[i] = inv.Code
	}
	return c.JSON(http.StatusOK, echo.Map{"invitations": codes})
}

// JoinCircle redeems an invitation code for the authenticated user
func (h *Handler) JoinCircle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordInvitationOperation("redeem")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse redemption request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	membership, err := h.invitations.Redeem(c.Request().Context(), req.Code, user)
	if err != nil {
		return h.domainError(c, err)
	}
	prometheus.AddOutstandingInvitations(-1)

	return c.JSON(http.StatusCreated, echo.Map{
		"message":    "Welcome to the circle",
		"membership": membership,
	})
}
