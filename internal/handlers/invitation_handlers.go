package handlers

import (
	"net/http"

	"fixflow/internal/common"
	"fixflow/internal/services"

	"github.com/labstack/echo/v4"
)

// InvitationHandlers handles the public acceptance endpoint. It sits
// outside the authenticated route group: the invitee has no account yet.
type InvitationHandlers struct {
	invitationSvc services.InvitationService
	authSvc       services.AuthService
}

func NewInvitationHandlers(invitationSvc services.InvitationService, authSvc services.AuthService) *InvitationHandlers {
	return &InvitationHandlers{
		invitationSvc: invitationSvc,
		authSvc:       authSvc,
	}
}

type acceptInvitationRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Accept godoc
// @Summary Accept an invitation token and provision the account
// @Tags invitations
// @Accept json
// @Produce json
// @Router /invitations/accept [post]
func (h *InvitationHandlers) Accept(c echo.Context) error {
	var req acceptInvitationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Token == "" {
		return common.SendError(c, common.Validation("token is required"))
	}
	if req.Email == "" {
		return common.SendError(c, common.Validation("email is required"))
	}
	if len(req.Password) < 8 {
		return common.SendError(c, common.Validation("password must be at least 8 characters"))
	}

	profile, err := h.invitationSvc.AcceptInvitation(c.Request().Context(), services.AcceptInput{
		Token:    req.Token,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	// The account now exists; log the new member straight in.
	_, tokens, err := h.authSvc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// Provisioning succeeded, only the login failed. Return the
		// profile so the client can fall back to the login endpoint.
		return c.JSON(http.StatusCreated, map[string]interface{}{"profile": profile})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"profile": profile,
		"tokens":  tokens,
	})
}
