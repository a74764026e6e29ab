package handlers

import (
	"net/http"
	"strings"

	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PropertyHandlers handles property and unit endpoints.
type PropertyHandlers struct {
	propertySvc services.PropertyService
}

func NewPropertyHandlers(propertySvc services.PropertyService) *PropertyHandlers {
	return &PropertyHandlers{propertySvc: propertySvc}
}

type propertyRequest struct {
	Name         string  `json:"name"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postal_code"`
	ManagerID    *string `json:"manager_id"`
}

func (h *PropertyHandlers) validateProperty(req *propertyRequest) (*uuid.UUID, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, common.Validation("name is required")
	}
	if strings.TrimSpace(req.AddressLine1) == "" {
		return nil, common.Validation("address_line1 is required")
	}
	if req.ManagerID == nil {
		return nil, nil
	}
	managerID, err := common.ValidateUUID(*req.ManagerID, "manager_id")
	if err != nil {
		return nil, err
	}
	return &managerID, nil
}

// Create godoc
// @Summary Create a property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /properties [post]
func (h *PropertyHandlers) Create(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	managerID, err := h.validateProperty(&req)
	if err != nil {
		return common.SendError(c, err)
	}

	property, err := h.propertySvc.Create(c.Request().Context(), caller, services.CreatePropertyInput{
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		ManagerID:    managerID,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, property)
}

// List godoc
// @Summary List the organization's properties
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Router /properties [get]
func (h *PropertyHandlers) List(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	limit, offset, err := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return common.SendError(c, err)
	}

	properties, err := h.propertySvc.List(c.Request().Context(), caller, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"properties": properties,
		"limit":      limit,
		"offset":     offset,
	})
}

// Get godoc
// @Summary Fetch one property
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Router /properties/{id} [get]
func (h *PropertyHandlers) Get(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	property, err := h.propertySvc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// Update godoc
// @Summary Update a property
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /properties/{id} [put]
func (h *PropertyHandlers) Update(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req propertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	managerID, err := h.validateProperty(&req)
	if err != nil {
		return common.SendError(c, err)
	}

	property, err := h.propertySvc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return common.SendError(c, err)
	}
	property.Name = req.Name
	property.AddressLine1 = req.AddressLine1
	property.AddressLine2 = req.AddressLine2
	property.City = req.City
	property.State = req.State
	property.PostalCode = req.PostalCode
	property.ManagerID = managerID

	if err := h.propertySvc.Update(c.Request().Context(), caller, property); err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, property)
}

// Delete godoc
// @Summary Delete a property
// @Tags properties
// @Security BearerAuth
// @Router /properties/{id} [delete]
func (h *PropertyHandlers) Delete(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertySvc.Delete(c.Request().Context(), caller, id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createUnitRequest struct {
	UnitNumber string `json:"unit_number"`
}

// CreateUnit godoc
// @Summary Add a unit to a property
// @Tags units
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /properties/{id}/units [post]
func (h *PropertyHandlers) CreateUnit(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	propertyID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req createUnitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.UnitNumber) == "" {
		return common.SendError(c, common.Validation("unit_number is required"))
	}

	unit, err := h.propertySvc.CreateUnit(c.Request().Context(), caller, propertyID, req.UnitNumber)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, unit)
}

// ListUnits godoc
// @Summary List a property's units
// @Tags units
// @Produce json
// @Security BearerAuth
// @Router /properties/{id}/units [get]
func (h *PropertyHandlers) ListUnits(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	propertyID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset, err := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return common.SendError(c, err)
	}

	units, err := h.propertySvc.ListUnits(c.Request().Context(), caller, propertyID, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"units":  units,
		"limit":  limit,
		"offset": offset,
	})
}

// UnassignTenant godoc
// @Summary Vacate a unit
// @Tags units
// @Security BearerAuth
// @Router /units/{id}/tenant [delete]
func (h *PropertyHandlers) UnassignTenant(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	unitID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertySvc.UnassignTenant(c.Request().Context(), caller, unitID); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
