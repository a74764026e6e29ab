package handlers

import (
	"io"
	"log"
	"net/http"

	"fixflow/internal/caching"
	"fixflow/internal/common"
	"fixflow/internal/middleware"
	"fixflow/internal/models"
	"fixflow/internal/repositories"
	"fixflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles plan listing, usage checks, checkout and
// the billing provider webhook.
type SubscriptionHandlers struct {
	limitsSvc    services.LimitsService
	billingSvc   services.BillingService
	authzSvc     services.AuthzService
	directorySvc services.DirectoryService
	orgRepo      repositories.OrganizationRepository
	cacheSvc     caching.CacheService
}

func NewSubscriptionHandlers(
	limitsSvc services.LimitsService,
	billingSvc services.BillingService,
	authzSvc services.AuthzService,
	directorySvc services.DirectoryService,
	orgRepo repositories.OrganizationRepository,
	cacheSvc caching.CacheService,
) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		limitsSvc:    limitsSvc,
		billingSvc:   billingSvc,
		authzSvc:     authzSvc,
		directorySvc: directorySvc,
		orgRepo:      orgRepo,
		cacheSvc:     cacheSvc,
	}
}

// ListPlans godoc
// @Summary List the subscription plan catalog
// @Tags billing
// @Produce json
// @Router /plans [get]
func (h *SubscriptionHandlers) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, services.AvailablePlans())
}

type checkLimitRequest struct {
	ResourceType string `json:"resource_type"`
}

// CheckLimit godoc
// @Summary Report whether the organization may add one more of a resource
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /subscription/check-limit [post]
func (h *SubscriptionHandlers) CheckLimit(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}

	var req checkLimitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !models.ValidLimitCategory(req.ResourceType) {
		return common.SendError(c, common.Validation("unknown resource type %q", req.ResourceType))
	}

	allowed, err := h.limitsSvc.CheckLimit(c.Request().Context(), caller.OrganizationID, models.LimitCategory(req.ResourceType))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"allowed": allowed,
	})
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

// CreateCheckout godoc
// @Summary Start a plan-upgrade checkout session
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /subscription/checkout [post]
func (h *SubscriptionHandlers) CreateCheckout(c echo.Context) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	if err := h.authzSvc.Authorize(caller, services.ActionManageBilling, caller.OrganizationID); err != nil {
		return common.SendError(c, err)
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if _, ok := services.PlanByID(req.PlanID); !ok {
		return common.SendError(c, common.Validation("unknown plan %q", req.PlanID))
	}

	profile, err := h.directorySvc.GetProfile(c.Request().Context(), caller.UserID)
	if err != nil {
		return common.SendError(c, err)
	}

	session, err := h.billingSvc.CreateCheckoutSession(c.Request().Context(), caller.OrganizationID, req.PlanID, profile.Email)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// HandleWebhook godoc
// @Summary Apply a signed billing provider event
// @Tags billing
// @Accept json
// @Router /webhooks/billing [post]
func (h *SubscriptionHandlers) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read webhook body")
	}

	event, err := h.billingSvc.VerifyWebhook(body, c.Request().Header.Get("X-Billing-Signature"))
	if err != nil {
		return common.SendError(c, err)
	}

	orgID, err := uuid.Parse(event.OrganizationID)
	if err != nil {
		log.Printf("billing webhook %s references invalid organization id %q", event.ID, event.OrganizationID)
		return c.NoContent(http.StatusOK)
	}

	switch event.Type {
	case "subscription.updated", "checkout.completed":
		if err := h.orgRepo.UpdateSubscription(c.Request().Context(), orgID, event.PlanID, event.Status); err != nil {
			return common.SendError(c, err)
		}
	case "subscription.canceled":
		if err := h.orgRepo.UpdateSubscription(c.Request().Context(), orgID, event.PlanID, models.SubscriptionStatusCanceled); err != nil {
			return common.SendError(c, err)
		}
	default:
		log.Printf("ignoring billing webhook event type %q (%s)", event.Type, event.ID)
		return c.NoContent(http.StatusOK)
	}

	if err := h.cacheSvc.InvalidateOrganization(c.Request().Context(), orgID); err != nil {
		log.Printf("failed to invalidate organization cache after webhook %s: %v", event.ID, err)
	}
	return c.NoContent(http.StatusOK)
}
