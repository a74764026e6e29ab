package services

import (
	"context"
	"io"
	"time"

	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories and services shared by the suites in this package.

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, request *models.MaintenanceRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.MaintenanceRequest, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListByOrg(ctx context.Context, organizationID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error) {
	args := m.Called(ctx, organizationID, filter)
	return args.Get(0).([]*models.MaintenanceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListByTenant(ctx context.Context, organizationID, tenantID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error) {
	args := m.Called(ctx, organizationID, tenantID, filter)
	return args.Get(0).([]*models.MaintenanceRequest), args.Error(1)
}

func (m *MockRequestRepository) UpdateFields(ctx context.Context, request *models.MaintenanceRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, request *models.MaintenanceRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) Assign(ctx context.Context, organizationID, id, assigneeID uuid.UUID, status models.RequestStatus) error {
	args := m.Called(ctx, organizationID, id, assigneeID, status)
	return args.Error(0)
}

func (m *MockRequestRepository) AddAttachment(ctx context.Context, attachment *models.RequestAttachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockRequestRepository) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]*models.RequestAttachment, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]*models.RequestAttachment), args.Error(1)
}

type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockUnitRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Unit, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Unit), args.Error(1)
}

func (m *MockUnitRepository) GetWithOrg(ctx context.Context, id uuid.UUID) (*repositories.UnitWithOrg, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.UnitWithOrg), args.Error(1)
}

func (m *MockUnitRepository) ListByProperty(ctx context.Context, organizationID, propertyID uuid.UUID, limit, offset int) ([]*models.Unit, error) {
	args := m.Called(ctx, organizationID, propertyID, limit, offset)
	return args.Get(0).([]*models.Unit), args.Error(1)
}

func (m *MockUnitRepository) AssignTenant(ctx context.Context, unitID, tenantID uuid.UUID) (bool, error) {
	args := m.Called(ctx, unitID, tenantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUnitRepository) UnassignTenant(ctx context.Context, organizationID, unitID uuid.UUID) error {
	args := m.Called(ctx, organizationID, unitID)
	return args.Error(0)
}

func (m *MockUnitRepository) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	args := m.Called(ctx, organizationID)
	return args.Int(0), args.Error(1)
}

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Property, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	return args.Get(0).([]*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

func (m *MockPropertyRepository) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	args := m.Called(ctx, organizationID)
	return args.Int(0), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) List(ctx context.Context, organizationID uuid.UUID, role *models.Role, limit, offset int) ([]*models.Profile, error) {
	args := m.Called(ctx, organizationID, role, limit, offset)
	return args.Get(0).([]*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

func (m *MockProfileRepository) CountByRole(ctx context.Context, organizationID uuid.UUID, role models.Role) (int, error) {
	args := m.Called(ctx, organizationID, role)
	return args.Int(0), args.Error(1)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) MarkAccepted(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) Create(ctx context.Context, pref *models.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceRepository) Get(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

func (m *MockPreferenceRepository) Update(ctx context.Context, pref *models.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockPreferenceRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, organizationID, userID, limit, offset)
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, userID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, userID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkResult(ctx context.Context, id uuid.UUID, status string, sendErr *string) error {
	args := m.Called(ctx, id, status, sendErr)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListFailed(ctx context.Context, maxRetries, limit int) ([]*models.Notification, error) {
	args := m.Called(ctx, maxRetries, limit)
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) IncrementRetry(ctx context.Context, id uuid.UUID, status string, sendErr *string) error {
	args := m.Called(ctx, id, status, sendErr)
	return args.Error(0)
}

type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockDirectoryService) LookupOrganization(ctx context.Context, idOrCode string) (*models.Organization, error) {
	args := m.Called(ctx, idOrCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockDirectoryService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockDirectoryService) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type MockLimitsService struct {
	mock.Mock
}

func (m *MockLimitsService) CheckLimit(ctx context.Context, organizationID uuid.UUID, category models.LimitCategory) (bool, error) {
	args := m.Called(ctx, organizationID, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockLimitsService) RecordSMS(ctx context.Context, organizationID uuid.UUID) error {
	args := m.Called(ctx, organizationID)
	return args.Error(0)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Dispatch(ctx context.Context, event NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotificationService) DispatchAsync(event NotificationEvent) {
	m.Called(event)
}

func (m *MockNotificationService) RetryFailed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, organizationID, userID, limit, offset)
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, userID, id)
	return args.Error(0)
}

func (m *MockNotificationService) Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, userID, id)
	return args.Error(0)
}

func (m *MockNotificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationPreference), args.Error(1)
}

func (m *MockNotificationService) UpdatePreferences(ctx context.Context, pref *models.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) CreateIdentity(ctx context.Context, email, password string) (uuid.UUID, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockIdentityService) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIdentityService) VerifyPassword(ctx context.Context, email, password string) (uuid.UUID, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, recipient, subject, htmlBody string) error {
	args := m.Called(ctx, recipient, subject, htmlBody)
	return args.Error(0)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, recipient, message string) error {
	args := m.Called(ctx, recipient, message)
	return args.Error(0)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, bucketName, objectName, contentType string, reader io.Reader, objectSize int64) error {
	args := m.Called(ctx, bucketName, objectName, contentType, reader, objectSize)
	return args.Error(0)
}

func (m *MockStorageService) PublicURL(bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockStorageService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockCacheService) SetOrganization(ctx context.Context, org *models.Organization, ttl time.Duration) error {
	args := m.Called(ctx, org, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateOrganization(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCacheService) IncrementSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error) {
	args := m.Called(ctx, organizationID, monthBucket)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) GetSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error) {
	args := m.Called(ctx, organizationID, monthBucket)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
