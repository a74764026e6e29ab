package handlers

import (
	"net/http"
	"strings"

	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/models"
	"fixflow/internal/services"

	"github.com/labstack/echo/v4"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

// RequestHandlers handles the maintenance-request lifecycle endpoints.
type RequestHandlers struct {
	requestSvc services.RequestService
}

func NewRequestHandlers(requestSvc services.RequestService) *RequestHandlers {
	return &RequestHandlers{requestSvc: requestSvc}
}

type createRequestRequest struct {
	UnitID      string `json:"unit_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// Create godoc
// @Summary Submit a maintenance request
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /requests [post]
func (h *RequestHandlers) Create(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	unitID, err := common.ValidateUUID(req.UnitID, "unit_id")
	if err != nil {
		return common.SendError(c, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return common.SendError(c, common.Validation("title is required"))
	}
	priority := models.RequestPriority(req.Priority)
	if req.Priority == "" {
		priority = models.PriorityMedium
	}

	request, err := h.requestSvc.Create(c.Request().Context(), caller, services.CreateRequestInput{
		UnitID:      unitID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, request)
}

// List godoc
// @Summary List maintenance requests visible to the caller
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Router /requests [get]
func (h *RequestHandlers) List(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	limit, offset, err := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return common.SendError(c, err)
	}

	filter := models.RequestFilter{Limit: limit, Offset: offset}
	if s := c.QueryParam("status"); s != "" {
		if !models.ValidStatus(s) {
			return common.SendError(c, common.Validation("unknown status %q", s))
		}
		status := models.RequestStatus(s)
		filter.Status = &status
	}
	if p := c.QueryParam("priority"); p != "" {
		priority := models.RequestPriority(p)
		if !models.ValidPriority(p) {
			return common.SendError(c, common.Validation("unknown priority %q", p))
		}
		filter.Priority = &priority
	}
	if p := c.QueryParam("property_id"); p != "" {
		propertyID, err := common.ValidateUUID(p, "property_id")
		if err != nil {
			return common.SendError(c, err)
		}
		filter.PropertyID = &propertyID
	}

	requests, err := h.requestSvc.List(c.Request().Context(), caller, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get godoc
// @Summary Fetch one maintenance request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Router /requests/{id} [get]
func (h *RequestHandlers) Get(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	request, err := h.requestSvc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

type updateRequestRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
}

// Update godoc
// @Summary Update caller-editable request fields
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /requests/{id} [patch]
func (h *RequestHandlers) Update(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req updateRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	input := services.UpdateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Priority != nil {
		priority := models.RequestPriority(*req.Priority)
		input.Priority = &priority
	}

	request, err := h.requestSvc.Update(c.Request().Context(), caller, id, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

type transitionRequest struct {
	Status          string  `json:"status"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// Transition godoc
// @Summary Move a request along its lifecycle
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /requests/{id}/status [post]
func (h *RequestHandlers) Transition(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Status == "" {
		return common.SendError(c, common.Validation("status is required"))
	}

	request, err := h.requestSvc.Transition(c.Request().Context(), caller, id, models.RequestStatus(req.Status), req.ResolutionNotes)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// Assign godoc
// @Summary Assign a request to a worker or manager
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /requests/{id}/assign [post]
func (h *RequestHandlers) Assign(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	assigneeID, err := common.ValidateUUID(req.AssignedTo, "assigned_to")
	if err != nil {
		return common.SendError(c, err)
	}

	request, err := h.requestSvc.Assign(c.Request().Context(), caller, id, assigneeID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, request)
}

// AddAttachment godoc
// @Summary Attach a photo or document to a request
// @Tags requests
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Router /requests/{id}/attachments [post]
func (h *RequestHandlers) AddAttachment(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendError(c, common.Validation("file upload is required"))
	}
	if fileHeader.Size > maxAttachmentSize {
		return common.SendError(c, common.Validation("file exceeds the 10 MiB attachment limit"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.requestSvc.AddAttachment(c.Request().Context(), caller, id, fileHeader.Filename, contentType, file, fileHeader.Size)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, attachment)
}
