package handlers

import (
	"net/http"
	"strings"

	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles signup, login and token refresh.
type AuthHandlers struct {
	authSvc      services.AuthService
	directorySvc services.DirectoryService
}

func NewAuthHandlers(authSvc services.AuthService, directorySvc services.DirectoryService) *AuthHandlers {
	return &AuthHandlers{
		authSvc:      authSvc,
		directorySvc: directorySvc,
	}
}

type signupRequest struct {
	OrganizationName string `json:"organization_name"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

// Signup godoc
// @Summary Create an organization and its owner account
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/signup [post]
func (h *AuthHandlers) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		return common.SendError(c, common.Validation("organization_name is required"))
	}
	if strings.TrimSpace(req.FullName) == "" {
		return common.SendError(c, common.Validation("full_name is required"))
	}
	if len(req.Password) < 8 {
		return common.SendError(c, common.Validation("password must be at least 8 characters"))
	}

	org, profile, tokens, err := h.authSvc.Signup(c.Request().Context(), services.SignupInput{
		OrganizationName: req.OrganizationName,
		FullName:         req.FullName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"organization": org,
		"profile":      profile,
		"tokens":       tokens,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Exchange credentials for a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/login [post]
func (h *AuthHandlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return common.SendError(c, common.Validation("email and password are required"))
	}

	profile, tokens, err := h.authSvc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"profile": profile,
		"tokens":  tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/refresh [post]
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return common.SendError(c, common.Validation("refresh_token is required"))
	}

	tokens, err := h.authSvc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

// Me godoc
// @Summary Return the authenticated caller's profile and organization
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Router /me [get]
func (h *AuthHandlers) Me(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	profile, err := h.directorySvc.GetProfile(c.Request().Context(), caller.UserID)
	if err != nil {
		return common.SendError(c, err)
	}
	org, err := h.directorySvc.GetOrganization(c.Request().Context(), caller.OrganizationID)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"profile":      profile,
		"organization": org,
	})
}
