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

// DeactivateMember marks a membership inactive; circle admins only
func (h *Handler) DeactivateMember(c echo.Context) error {
	return h.adminMemberAction(c, "deactivate")
}

// PromoteMember grants admin rights to a member; circle admins only
func (h *Handler) PromoteMember(c echo.Context) error {
	return h.adminMemberAction(c, "promote")
}

func (h *Handler) adminMemberAction(c echo.Context, action string) error {
	log := logger.FromEcho(c)
	prometheus.RecordCircleOperation(action + "_member")

	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	circle, err := h.circleBySlug(c)
	if err != nil {
		return h.domainError(c, err)
	}
	requester, err := h.ledger.Get(c.Request().Context(), user.ID, circle.ID)
	if err != nil || !permissions.IsCircleAdmin(requester) {
		log.Warn("Unauthorized member management attempt",
			zap.Uint("user_id", user.ID),
			zap.String("slug", circle.Slug),
			zap.String("action", action))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "circle admin required"})
	}

	target, err := h.userByUsername(c)
	if err != nil {
		return h.domainError(c, err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	switch action {
	case "deactivate":
		membership, err := h.ledger.Deactivate(c.Request().Context(), target.ID, circle.ID)
		if err != nil {
			return h.domainError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"membership": membership})
	default:
		membership, err := h.ledger.PromoteToAdmin(c.Request().Context(), target.ID, circle.ID)
		if err != nil {
			return h.domainError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"membership": membership})
	}
}
