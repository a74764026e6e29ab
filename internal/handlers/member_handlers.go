package handlers

import (
	"net/http"

	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/models"
	"fixflow/internal/repositories"
	"fixflow/internal/services"

	"github.com/labstack/echo/v4"
)

// MemberHandlers handles organization membership: listing members and
// issuing role-scoped invitations.
type MemberHandlers struct {
	invitationSvc services.InvitationService
	profileRepo   repositories.ProfileRepository
}

func NewMemberHandlers(invitationSvc services.InvitationService, profileRepo repositories.ProfileRepository) *MemberHandlers {
	return &MemberHandlers{
		invitationSvc: invitationSvc,
		profileRepo:   profileRepo,
	}
}

type inviteRequest struct {
	Email  string  `json:"email"`
	UnitID *string `json:"unit_id"`
}

func (h *MemberHandlers) invite(c echo.Context, role models.Role) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" {
		return common.SendError(c, common.Validation("email is required"))
	}

	input := services.InviteInput{Email: req.Email, Role: role}
	if req.UnitID != nil {
		unitID, err := common.ValidateUUID(*req.UnitID, "unit_id")
		if err != nil {
			return common.SendError(c, err)
		}
		input.UnitID = &unitID
	}

	invitation, err := h.invitationSvc.Invite(c.Request().Context(), caller, input)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, invitation)
}

// InviteWorker godoc
// @Summary Invite a maintenance worker
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /workers [post]
func (h *MemberHandlers) InviteWorker(c echo.Context) error {
	return h.invite(c, models.RoleWorker)
}

// InviteManager godoc
// @Summary Invite a property manager
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /managers [post]
func (h *MemberHandlers) InviteManager(c echo.Context) error {
	return h.invite(c, models.RoleManager)
}

// InviteTenant godoc
// @Summary Invite a tenant into a vacant unit
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /tenants [post]
func (h *MemberHandlers) InviteTenant(c echo.Context) error {
	return h.invite(c, models.RoleTenant)
}

// ListMembers godoc
// @Summary List organization members, optionally filtered by role
// @Tags members
// @Produce json
// @Security BearerAuth
// @Router /members [get]
func (h *MemberHandlers) ListMembers(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	limit, offset, err := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	if err != nil {
		return common.SendError(c, err)
	}

	var role *models.Role
	if r := c.QueryParam("role"); r != "" {
		parsed := models.Role(r)
		if !models.ValidRole(r) {
			return common.SendError(c, common.Validation("unknown role %q", r))
		}
		role = &parsed
	}

	members, err := h.profileRepo.List(c.Request().Context(), caller.OrganizationID, role, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetMember godoc
// @Summary Fetch one member profile
// @Tags members
// @Produce json
// @Security BearerAuth
// @Router /members/{id} [get]
func (h *MemberHandlers) GetMember(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendError(c, err)
	}

	profile, err := h.profileRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	if profile == nil || profile.OrganizationID != caller.OrganizationID {
		return common.SendError(c, common.NotFound("member %s not found", id))
	}
	return c.JSON(http.StatusOK, profile)
}
