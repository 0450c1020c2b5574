package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

// ConsentHandler handles notification permission reporting
type ConsentHandler struct {
	consent ports.ConsentGateway
	logger  *logger.Logger
}

// NewConsentHandler creates a new consent handler
func NewConsentHandler(consent ports.ConsentGateway, logger *logger.Logger) *ConsentHandler {
	return &ConsentHandler{
		consent: consent,
		logger:  logger,
	}
}

// GetConsent returns the actor's current notification permission state
func (h *ConsentHandler) GetConsent(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	status, err := h.consent.Status(c.Request().Context(), actorID)
	if err != nil {
		h.logger.Errorw("Get consent failed", "error", err, "actor_id", actorID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read consent state")
	}

	return c.JSON(http.StatusOK, ConsentResponse{Status: string(status)})
}

// SetConsent records the permission state the actor's device reported
func (h *ConsentHandler) SetConsent(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	var req ports.ConsentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status := ports.ConsentStatus(req.Status)
	if err := h.consent.SetStatus(c.Request().Context(), actorID, status); err != nil {
		h.logger.Errorw("Set consent failed", "error", err, "actor_id", actorID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store consent state")
	}

	h.logger.Infow("Consent state updated", "actor_id", actorID, "status", req.Status)
	return c.JSON(http.StatusOK, ConsentResponse{Status: req.Status})
}

type ConsentResponse struct {
	Status string `json:"status"`
}
