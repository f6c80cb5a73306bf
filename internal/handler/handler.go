// Package handler exposes the HTTP boundary. Handlers orchestrate:
// they authenticate, gate with the permission predicates and delegate
// to the domain services; they never mutate ledger state directly.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/apperrors"
	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/invitations"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/rides"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
	"github.com/Achess01/ComparteRide-platzi/pkg/jwtutil"
	"github.com/Achess01/ComparteRide-platzi/pkg/logger"
	"github.com/Achess01/ComparteRide-platzi/prometheus"
)

// Handler wires the domain services to the echo routes.
type Handler struct {
	store       store.Store
	jwt         *jwtutil.JWTUtil
	directory   *circles.Directory
	ledger      *circles.Ledger
	invitations *invitations.Manager
	rides       *rides.Service
}

// New creates a Handler over the given services.
func New(st store.Store, jwt *jwtutil.JWTUtil, directory *circles.Directory, ledger *circles.Ledger, manager *invitations.Manager, rideSvc *rides.Service) *Handler {
	return &Handler{
		store:       st,
		jwt:         jwt,
		directory:   directory,
		ledger:      ledger,
		invitations: manager,
		rides:       rideSvc,
	}
}

// SetupRoutes registers every route on the echo instance. authMW guards
// everything except health, metrics and the auth endpoints.
func (h *Handler) SetupRoutes(e *echo.Echo, authMW echo.MiddlewareFunc) {
	e.GET("/health", h.HealthCheck)
	e.GET("/metrics", h.Metrics)

	auth := e.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)

	cg := e.Group("/circles", authMW)
	cg.POST("", h.CreateCircle)
	cg.GET("", h.ListCircles)
	cg.POST("/join", h.JoinCircle)
	cg.GET("/:slug", h.GetCircle)
	cg.PATCH("/:slug", h.UpdateCircle)
	cg.DELETE("/:slug", h.DeactivateCircle)
	cg.GET("/:slug/members/:username/invitations", h.MemberInvitations)
	cg.POST("/:slug/members/:username/deactivate", h.DeactivateMember)
	cg.POST("/:slug/members/:username/promote", h.PromoteMember)
	cg.POST("/:slug/rides", h.OfferRide)
	cg.POST("/:slug/rides/:id/join", h.JoinRide)
}

// currentUser loads the authenticated user placed in context by the
// JWT middleware.
func (h *Handler) currentUser(c echo.Context) (model.User, bool) {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return model.User{}, false
	}
	user, err := h.store.Users().GetByID(c.Request().Context(), userID)
	if err != nil {
		return model.User{}, false
	}
	return user, true
}

// domainError renders a domain rejection with its machine code, or a
// bare 500 for unexpected failures.
func (h *Handler) domainError(c echo.Context, err error) error {
	if code := apperrors.CodeOf(err); code != apperrors.CodeUnknown {
		prometheus.RecordDomainError(string(code))
		return c.JSON(apperrors.HTTPStatus(err), echo.Map{
			"error": err.Error(),
			"code":  string(code),
		})
	}
	logger.FromEcho(c).Error("Unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// circleBySlug resolves the :slug path parameter.
func (h *Handler) circleBySlug(c echo.Context) (model.Circle, error) {
	return h.directory.GetBySlug(c.Request().Context(), c.Param("slug"))
}

// userByUsername resolves the :username path parameter.
func (h *Handler) userByUsername(c echo.Context) (model.User, error) {
	user, err := h.store.Users().GetByUsername(c.Request().Context(), c.Param("username"))
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, apperrors.New(apperrors.CodeUserNotFound, "user not found")
	}
	return user, err
}
