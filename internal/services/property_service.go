package services

import (
	"context"

	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

// CreatePropertyInput carries the property creation payload.
type CreatePropertyInput struct {
	Name         string
	AddressLine1 string
	AddressLine2 *string
	City         string
	State        string
	PostalCode   string
	ManagerID    *uuid.UUID
}

// PropertyService manages properties and their units. Creation is
// limit-gated; mutation is restricted to owners and managers.
type PropertyService interface {
	Create(ctx context.Context, caller common.Caller, input CreatePropertyInput) (*models.Property, error)
	Get(ctx context.Context, caller common.Caller, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, caller common.Caller, limit, offset int) ([]*models.Property, error)
	Update(ctx context.Context, caller common.Caller, property *models.Property) error
	Delete(ctx context.Context, caller common.Caller, id uuid.UUID) error

	CreateUnit(ctx context.Context, caller common.Caller, propertyID uuid.UUID, unitNumber string) (*models.Unit, error)
	ListUnits(ctx context.Context, caller common.Caller, propertyID uuid.UUID, limit, offset int) ([]*models.Unit, error)
	UnassignTenant(ctx context.Context, caller common.Caller, unitID uuid.UUID) error
}

type propertyService struct {
	propertyRepo repositories.PropertyRepository
	unitRepo     repositories.UnitRepository
	directorySvc DirectoryService
	authzSvc     AuthzService
	limitsSvc    LimitsService
}

func NewPropertyService(
	propertyRepo repositories.PropertyRepository,
	unitRepo repositories.UnitRepository,
	directorySvc DirectoryService,
	authzSvc AuthzService,
	limitsSvc LimitsService,
) PropertyService {
	return &propertyService{
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		directorySvc: directorySvc,
		authzSvc:     authzSvc,
		limitsSvc:    limitsSvc,
	}
}

func (s *propertyService) Create(ctx context.Context, caller common.Caller, input CreatePropertyInput) (*models.Property, error) {
	if err := s.authzSvc.Authorize(caller, ActionCreateProperty, caller.OrganizationID); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.Name, "name"); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.AddressLine1, "address_line1"); err != nil {
		return nil, err
	}

	allowed, err := s.limitsSvc.CheckLimit(ctx, caller.OrganizationID, models.LimitProperties)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, common.LimitExceeded("plan limit for properties reached")
	}

	if input.ManagerID != nil {
		manager, err := s.directorySvc.GetProfile(ctx, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		if manager.OrganizationID != caller.OrganizationID {
			return nil, common.Forbidden("manager belongs to another organization")
		}
		if manager.Role != models.RoleManager && manager.Role != models.RoleOwner {
			return nil, common.Validation("property manager must hold the manager role")
		}
	}

	property := &models.Property{
		ID:             uuid.New(),
		OrganizationID: caller.OrganizationID,
		Name:           input.Name,
		AddressLine1:   input.AddressLine1,
		AddressLine2:   input.AddressLine2,
		City:           input.City,
		State:          input.State,
		PostalCode:     input.PostalCode,
		ManagerID:      input.ManagerID,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *propertyService) Get(ctx context.Context, caller common.Caller, id uuid.UUID) (*models.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, caller.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, common.NotFound("property not found")
	}
	return property, nil
}

func (s *propertyService) List(ctx context.Context, caller common.Caller, limit, offset int) ([]*models.Property, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.propertyRepo.List(ctx, caller.OrganizationID, limit, offset)
}

func (s *propertyService) Update(ctx context.Context, caller common.Caller, property *models.Property) error {
	if err := s.authzSvc.Authorize(caller, ActionManageProperty, caller.OrganizationID); err != nil {
		return err
	}
	property.OrganizationID = caller.OrganizationID
	return s.propertyRepo.Update(ctx, property)
}

func (s *propertyService) Delete(ctx context.Context, caller common.Caller, id uuid.UUID) error {
	if err := s.authzSvc.Authorize(caller, ActionManageProperty, caller.OrganizationID); err != nil {
		return err
	}
	return s.propertyRepo.Delete(ctx, caller.OrganizationID, id)
}

func (s *propertyService) CreateUnit(ctx context.Context, caller common.Caller, propertyID uuid.UUID, unitNumber string) (*models.Unit, error) {
	if err := s.authzSvc.Authorize(caller, ActionCreateUnit, caller.OrganizationID); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(unitNumber, "unit_number"); err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.GetByID(ctx, caller.OrganizationID, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, common.NotFound("property not found")
	}

	allowed, err := s.limitsSvc.CheckLimit(ctx, caller.OrganizationID, models.LimitUnits)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, common.LimitExceeded("plan limit for units reached")
	}

	unit := &models.Unit{
		ID:         uuid.New(),
		PropertyID: propertyID,
		UnitNumber: unitNumber,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *propertyService) ListUnits(ctx context.Context, caller common.Caller, propertyID uuid.UUID, limit, offset int) ([]*models.Unit, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.unitRepo.ListByProperty(ctx, caller.OrganizationID, propertyID, limit, offset)
}

func (s *propertyService) UnassignTenant(ctx context.Context, caller common.Caller, unitID uuid.UUID) error {
	if err := s.authzSvc.Authorize(caller, ActionUnassignTenant, caller.OrganizationID); err != nil {
		return err
	}
	unit, err := s.unitRepo.GetByID(ctx, caller.OrganizationID, unitID)
	if err != nil {
		return err
	}
	if unit == nil {
		return common.NotFound("unit not found")
	}
	return s.unitRepo.UnassignTenant(ctx, caller.OrganizationID, unitID)
}
