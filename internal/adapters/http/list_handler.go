package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/takecare/core/internal/application/services"
	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

// ListHandler handles care list requests
type ListHandler struct {
	listService *services.ListService
	logger      *logger.Logger
}

// NewListHandler creates a new list handler
func NewListHandler(listService *services.ListService, logger *logger.Logger) *ListHandler {
	return &ListHandler{
		listService: listService,
		logger:      logger,
	}
}

// CreateList handles list creation for the authenticated actor
func (h *ListHandler) CreateList(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	var req ports.CreateListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	list, err := h.listService.CreateList(c.Request().Context(), actorID, req)
	if err != nil {
		h.logger.Errorw("Create list failed", "error", err, "actor_id", actorID)
		return mapDomainError(err, "Failed to create list")
	}

	return c.JSON(http.StatusCreated, list)
}

// GetList handles fetching a single list by ID
func (h *ListHandler) GetList(c echo.Context) error {
	listID := c.Param("id")

	list, err := h.listService.GetList(c.Request().Context(), listID)
	if err != nil {
		if !errors.Is(err, entities.ErrListNotFound) {
			h.logger.Errorw("Get list failed", "error", err, "list_id", listID)
		}
		return mapDomainError(err, "Failed to retrieve list")
	}

	return c.JSON(http.StatusOK, list)
}

// ListLists handles listing the actor's lists, owned or received
func (h *ListHandler) ListLists(c echo.Context) error {
	actorID := getActorIDFromContext(c)
	if actorID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing actor identity")
	}

	scope, err := scopeFromRequest(c, actorID)
	if err != nil {
		return err
	}

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
	}

	lists, err := h.listService.Lists(c.Request().Context(), scope, limit, offset)
	if err != nil {
		h.logger.Errorw("List lists failed", "error", err, "actor_id", actorID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve lists")
	}

	return c.JSON(http.StatusOK, PaginatedResponse[*entities.List]{
		Data:   lists,
		Limit:  limit,
		Offset: offset,
	})
}

// UpdateList handles a whole-list replacement
func (h *ListHandler) UpdateList(c echo.Context) error {
	listID := c.Param("id")

	var req ports.UpdateListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	list, err := h.listService.UpdateList(c.Request().Context(), listID, req)
	if err != nil {
		if !errors.Is(err, entities.ErrListNotFound) {
			h.logger.Errorw("Update list failed", "error", err, "list_id", listID)
		}
		return mapDomainError(err, "Failed to update list")
	}

	return c.JSON(http.StatusOK, list)
}

// DeleteList handles list deletion
func (h *ListHandler) DeleteList(c echo.Context) error {
	listID := c.Param("id")

	if err := h.listService.DeleteList(c.Request().Context(), listID); err != nil {
		if !errors.Is(err, entities.ErrListNotFound) {
			h.logger.Errorw("Delete list failed", "error", err, "list_id", listID)
		}
		return mapDomainError(err, "Failed to delete list")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "List deleted"})
}

// ToggleTask handles flipping a task's completion flag
func (h *ListHandler) ToggleTask(c echo.Context) error {
	listID := c.Param("id")
	taskID := c.Param("taskId")

	var req ports.ToggleTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	list, err := h.listService.ToggleTask(c.Request().Context(), listID, taskID, req.Completed)
	if err != nil {
		if !errors.Is(err, entities.ErrListNotFound) && !errors.Is(err, entities.ErrTaskNotFound) {
			h.logger.Errorw("Toggle task failed", "error", err, "list_id", listID, "task_id", taskID)
		}
		return mapDomainError(err, "Failed to toggle task")
	}

	return c.JSON(http.StatusOK, list)
}

// Utility functions and helper types

func getActorIDFromContext(c echo.Context) string {
	actor := c.Get("actor_id")
	if actor == nil {
		return ""
	}
	if actorStr, ok := actor.(string); ok {
		return actorStr
	}
	return ""
}

func scopeFromRequest(c echo.Context, actorID string) (ports.ActorScope, error) {
	role := ports.ScopeRole(c.QueryParam("role"))
	if role == "" {
		role = ports.RoleOwner
	}
	if !role.IsValid() {
		return ports.ActorScope{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid role parameter")
	}
	return ports.ActorScope{ActorID: actorID, Role: role}, nil
}

func mapDomainError(err error, fallback string) error {
	switch {
	case errors.Is(err, entities.ErrListNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "List not found")
	case errors.Is(err, entities.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	case errors.Is(err, entities.ErrEmptyTitle),
		errors.Is(err, entities.ErrEmptyName),
		errors.Is(err, entities.ErrEmptyOwner),
		errors.Is(err, entities.ErrInvalidRecurrence),
		errors.Is(err, entities.ErrDuplicateTaskID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}

// Request/Response types

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type PaginatedResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
