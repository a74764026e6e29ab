package handlers

import (
	"net/http"

	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/models"
	"fixflow/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers exposes the caller's notification inbox and
// per-event preferences.
type NotificationHandlers struct {
	notificationSvc services.NotificationService
}

func NewNotificationHandlers(notificationSvc services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notificationSvc: notificationSvc}
}

// List godoc
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandlers) List(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return common.SendError(c, err)
	}

	notifications, err := h.notificationSvc.ListByUser(c.Request().Context(), caller.OrganizationID, caller.UserID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *NotificationHandlers) MarkRead(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.notificationSvc.MarkRead(c.Request().Context(), caller.OrganizationID, caller.UserID, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandlers) Delete(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.notificationSvc.Delete(c.Request().Context(), caller.OrganizationID, caller.UserID, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetPreferences godoc
// @Summary Fetch the caller's notification preferences
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Router /notification-preferences [get]
func (h *NotificationHandlers) GetPreferences(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	pref, err := h.notificationSvc.GetPreferences(c.Request().Context(), caller.UserID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, pref)
}

type preferencesRequest struct {
	NewRequest   bool `json:"new_request"`
	StatusUpdate bool `json:"status_update"`
	Assignment   bool `json:"assignment"`
	Emergency    bool `json:"emergency"`
	Comment      bool `json:"comment"`
}

// UpdatePreferences godoc
// @Summary Replace the caller's notification preferences
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /notification-preferences [put]
func (h *NotificationHandlers) UpdatePreferences(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	pref := &models.NotificationPreference{
		UserID:       caller.UserID,
		NewRequest:   req.NewRequest,
		StatusUpdate: req.StatusUpdate,
		Assignment:   req.Assignment,
		Emergency:    req.Emergency,
		Comment:      req.Comment,
	}
	if err := h.notificationSvc.UpdatePreferences(c.Request().Context(), pref); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, pref)
}
