package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/takecare/core/internal/application/services"
	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/logger"
)

// ReconcileHandler exposes the refresh cycle and its snapshot
type ReconcileHandler struct {
	reconcileService *services.ReconcileService
	logger           *logger.Logger
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconcileService *services.ReconcileService, logger *logger.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

// Refresh runs a full reconciliation cycle for the actor's scope and
// returns the resulting snapshot. Store failures still return the last
// known snapshot alongside the error status so clients can keep rendering.
func (h *ReconcileHandler) Refresh(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	scope, err := scopeFromRequest(c, actorID)
	if err != nil {
		return err
	}

	refreshErr := h.reconcileService.Refresh(c.Request().Context(), scope)
	snapshot := h.reconcileService.Snapshot(scope)
	if snapshot == nil {
		snapshot = []*entities.List{}
	}

	if refreshErr != nil {
		h.logger.Errorw("Refresh cycle failed", "error", refreshErr, "scope", scope.Key())
		return c.JSON(http.StatusServiceUnavailable, RefreshResponse{
			Lists: snapshot,
			Stale: true,
			Error: "Refresh failed, showing last known state",
		})
	}

	return c.JSON(http.StatusOK, RefreshResponse{Lists: snapshot})
}

// Snapshot returns the last reconciled state without touching the store.
func (h *ReconcileHandler) Snapshot(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	scope, err := scopeFromRequest(c, actorID)
	if err != nil {
		return err
	}

	snapshot := h.reconcileService.Snapshot(scope)
	if snapshot == nil {
		snapshot = []*entities.List{}
	}

	return c.JSON(http.StatusOK, RefreshResponse{Lists: snapshot})
}

type RefreshResponse struct {
	Lists []*entities.List `json:"lists"`
	Stale bool             `json:"stale,omitempty"`
	Error string           `json:"error,omitempty"`
}
