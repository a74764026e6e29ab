package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

// CreateRequestInput is the tenant-supplied part of a new request.
// Property and organization are resolved from the unit, never trusted
// from the caller.
type CreateRequestInput struct {
	UnitID      uuid.UUID
	Title       string
	Description string
	Category    string
	Priority    models.RequestPriority
}

// UpdateRequestInput is the allow-list of caller-mutable fields.
// Identity and scoping fields are not representable here.
type UpdateRequestInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *models.RequestPriority
}

// RequestService owns the maintenance-request state machine: creation,
// field updates, status transitions, assignment and role-scoped reads.
type RequestService interface {
	Create(ctx context.Context, caller common.Caller, input CreateRequestInput) (*models.MaintenanceRequest, error)
	Get(ctx context.Context, caller common.Caller, id uuid.UUID) (*models.MaintenanceRequest, error)
	List(ctx context.Context, caller common.Caller, filter models.RequestFilter) ([]*models.MaintenanceRequest, error)
	Update(ctx context.Context, caller common.Caller, id uuid.UUID, input UpdateRequestInput) (*models.MaintenanceRequest, error)
	Transition(ctx context.Context, caller common.Caller, id uuid.UUID, to models.RequestStatus, resolutionNotes *string) (*models.MaintenanceRequest, error)
	Assign(ctx context.Context, caller common.Caller, id, assigneeID uuid.UUID) (*models.MaintenanceRequest, error)
	AddAttachment(ctx context.Context, caller common.Caller, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.RequestAttachment, error)
}

type requestService struct {
	requestRepo  repositories.RequestRepository
	unitRepo     repositories.UnitRepository
	propertyRepo repositories.PropertyRepository
	directorySvc DirectoryService
	authzSvc     AuthzService
	notifySvc    NotificationService
	storageSvc   StorageService
	bucket       string
	now          func() time.Time
}

func NewRequestService(
	requestRepo repositories.RequestRepository,
	unitRepo repositories.UnitRepository,
	propertyRepo repositories.PropertyRepository,
	directorySvc DirectoryService,
	authzSvc AuthzService,
	notifySvc NotificationService,
	storageSvc StorageService,
	bucket string,
) RequestService {
	return &requestService{
		requestRepo:  requestRepo,
		unitRepo:     unitRepo,
		propertyRepo: propertyRepo,
		directorySvc: directorySvc,
		authzSvc:     authzSvc,
		notifySvc:    notifySvc,
		storageSvc:   storageSvc,
		bucket:       bucket,
		now:          time.Now,
	}
}

func (s *requestService) Create(ctx context.Context, caller common.Caller, input CreateRequestInput) (*models.MaintenanceRequest, error) {
	if err := common.ValidateRequiredString(input.Title, "title"); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.Category, "category"); err != nil {
		return nil, err
	}
	if !models.ValidPriority(string(input.Priority)) {
		return nil, common.Validation("priority must be one of: low, medium, high, emergency")
	}

	resolved, err := s.unitRepo.GetWithOrg(ctx, input.UnitID)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, common.Validation("unit does not resolve to a property")
	}

	if err := s.authzSvc.Authorize(caller, ActionCreateRequest, resolved.OrganizationID); err != nil {
		return nil, err
	}

	request := &models.MaintenanceRequest{
		ID:             uuid.New(),
		OrganizationID: resolved.OrganizationID,
		PropertyID:     resolved.Unit.PropertyID,
		UnitID:         resolved.Unit.ID,
		TenantID:       caller.UserID,
		Title:          input.Title,
		Description:    input.Description,
		Category:       input.Category,
		Priority:       input.Priority,
		Status:         models.StatusSubmitted,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.notifyPropertyContact(ctx, request)
	return request, nil
}

// notifyPropertyContact emits new_request (and emergency, when the
// priority warrants it) to the property's manager. Best-effort.
func (s *requestService) notifyPropertyContact(ctx context.Context, request *models.MaintenanceRequest) {
	property, err := s.propertyRepo.GetByID(ctx, request.OrganizationID, request.PropertyID)
	if err != nil || property == nil || property.ManagerID == nil {
		return
	}

	eventType := models.EventNewRequest
	if request.Priority == models.PriorityEmergency {
		eventType = models.EventEmergency
	}
	s.notifySvc.DispatchAsync(NotificationEvent{
		Type:           eventType,
		RecipientID:    *property.ManagerID,
		OrganizationID: request.OrganizationID,
		RequestID:      &request.ID,
		RequestTitle:   request.Title,
	})
}

// loadVisible fetches the request and applies row-level visibility:
// tenants see only their own requests, other roles see everything in
// their organization. Invisible rows read as not found.
func (s *requestService) loadVisible(ctx context.Context, caller common.Caller, id uuid.UUID) (*models.MaintenanceRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, caller.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, common.NotFound("request not found")
	}
	if caller.Role == models.RoleTenant && request.TenantID != caller.UserID {
		return nil, common.NotFound("request not found")
	}
	return request, nil
}

func (s *requestService) Get(ctx context.Context, caller common.Caller, id uuid.UUID) (*models.MaintenanceRequest, error) {
	return s.loadVisible(ctx, caller, id)
}

func (s *requestService) List(ctx context.Context, caller common.Caller, filter models.RequestFilter) ([]*models.MaintenanceRequest, error) {
	filter.Limit, filter.Offset = common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if caller.Role == models.RoleTenant {
		return s.requestRepo.ListByTenant(ctx, caller.OrganizationID, caller.UserID, filter)
	}
	return s.requestRepo.ListByOrg(ctx, caller.OrganizationID, filter)
}

func (s *requestService) Update(ctx context.Context, caller common.Caller, id uuid.UUID, input UpdateRequestInput) (*models.MaintenanceRequest, error) {
	request, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzSvc.Authorize(caller, ActionUpdateRequest, request.OrganizationID); err != nil {
		return nil, err
	}
	if request.Status == models.StatusCompleted || request.Status == models.StatusCancelled {
		return nil, common.Conflict("request is %s and can no longer be edited", request.Status)
	}

	if input.Title != nil {
		if err := common.ValidateRequiredString(*input.Title, "title"); err != nil {
			return nil, err
		}
		request.Title = *input.Title
	}
	if input.Description != nil {
		request.Description = *input.Description
	}
	if input.Category != nil {
		if err := common.ValidateRequiredString(*input.Category, "category"); err != nil {
			return nil, err
		}
		request.Category = *input.Category
	}
	if input.Priority != nil {
		if !models.ValidPriority(string(*input.Priority)) {
			return nil, common.Validation("priority must be one of: low, medium, high, emergency")
		}
		request.Priority = *input.Priority
	}

	if err := s.requestRepo.UpdateFields(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *requestService) Transition(ctx context.Context, caller common.Caller, id uuid.UUID, to models.RequestStatus, resolutionNotes *string) (*models.MaintenanceRequest, error) {
	request, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzSvc.Authorize(caller, ActionTransition, request.OrganizationID); err != nil {
		return nil, err
	}

	// Assignment is its own operation; the generic transition endpoint
	// never produces the submitted -> assigned edge.
	if to == models.StatusAssigned {
		return nil, common.Conflict("assignment must go through the assign operation")
	}
	if !models.CanTransition(request.Status, to) {
		return nil, common.Conflict("invalid transition from %s to %s", request.Status, to)
	}

	request.Status = to
	if to == models.StatusCompleted {
		completedBy := caller.UserID
		completedAt := s.now()
		request.CompletedBy = &completedBy
		request.CompletedAt = &completedAt
		request.ResolutionNotes = resolutionNotes
	}

	if err := s.requestRepo.UpdateStatus(ctx, request); err != nil {
		return nil, err
	}

	// The tenant who filed the request hears about every status change.
	if request.TenantID != caller.UserID {
		s.notifySvc.DispatchAsync(NotificationEvent{
			Type:           models.EventStatusUpdate,
			RecipientID:    request.TenantID,
			OrganizationID: request.OrganizationID,
			RequestID:      &request.ID,
			RequestTitle:   request.Title,
			Detail:         fmt.Sprintf("status is now %s", to),
		})
	}
	return request, nil
}

func (s *requestService) Assign(ctx context.Context, caller common.Caller, id, assigneeID uuid.UUID) (*models.MaintenanceRequest, error) {
	request, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzSvc.Authorize(caller, ActionAssignRequest, request.OrganizationID); err != nil {
		return nil, err
	}

	assignee, err := s.directorySvc.GetProfile(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee.OrganizationID != request.OrganizationID {
		return nil, common.Forbidden("assignee belongs to another organization")
	}
	if assignee.Role != models.RoleWorker && assignee.Role != models.RoleManager {
		return nil, common.Validation("requests can only be assigned to workers or managers")
	}

	switch request.Status {
	case models.StatusSubmitted, models.StatusAssigned:
		request.Status = models.StatusAssigned
	case models.StatusInProgress:
		// Reassignment mid-work keeps the status.
	default:
		return nil, common.Conflict("cannot assign a %s request", request.Status)
	}
	request.AssignedTo = &assigneeID

	if err := s.requestRepo.Assign(ctx, request.OrganizationID, request.ID, assigneeID, request.Status); err != nil {
		return nil, err
	}

	s.notifySvc.DispatchAsync(NotificationEvent{
		Type:           models.EventAssignment,
		RecipientID:    assigneeID,
		OrganizationID: request.OrganizationID,
		RequestID:      &request.ID,
		RequestTitle:   request.Title,
	})
	return request, nil
}

func (s *requestService) AddAttachment(ctx context.Context, caller common.Caller, id uuid.UUID, filename, contentType string, reader io.Reader, size int64) (*models.RequestAttachment, error) {
	request, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("%s/%s/%s", request.OrganizationID, request.ID, filename)
	if err := s.storageSvc.Upload(ctx, s.bucket, objectKey, contentType, reader, size); err != nil {
		return nil, common.Upstream(err, "attachment upload failed")
	}
	publicURL, err := s.storageSvc.PublicURL(s.bucket, objectKey, 7*24*time.Hour)
	if err != nil {
		return nil, common.Upstream(err, "attachment url generation failed")
	}

	attachment := &models.RequestAttachment{
		ID:         uuid.New(),
		RequestID:  request.ID,
		ObjectKey:  objectKey,
		PublicURL:  publicURL,
		UploadedBy: caller.UserID,
	}
	if err := s.requestRepo.AddAttachment(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}
