package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixflow/internal/common"
	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type InvitationServiceTestSuite struct {
	suite.Suite
	invitationRepo *MockInvitationRepository
	profileRepo    *MockProfileRepository
	preferenceRepo *MockPreferenceRepository
	unitRepo       *MockUnitRepository
	directorySvc   *MockDirectoryService
	limitsSvc      *MockLimitsService
	identitySvc    *MockIdentityService
	notifySvc      *MockNotificationService
	emailSender    *MockEmailSender
	svc            InvitationService

	orgID   uuid.UUID
	owner   common.Caller
	manager common.Caller
	ctx     context.Context
}

func (suite *InvitationServiceTestSuite) SetupTest() {
	suite.invitationRepo = new(MockInvitationRepository)
	suite.profileRepo = new(MockProfileRepository)
	suite.preferenceRepo = new(MockPreferenceRepository)
	suite.unitRepo = new(MockUnitRepository)
	suite.directorySvc = new(MockDirectoryService)
	suite.limitsSvc = new(MockLimitsService)
	suite.identitySvc = new(MockIdentityService)
	suite.notifySvc = new(MockNotificationService)
	suite.emailSender = new(MockEmailSender)

	suite.svc = NewInvitationService(
		suite.invitationRepo,
		suite.profileRepo,
		suite.preferenceRepo,
		suite.unitRepo,
		suite.directorySvc,
		NewAuthzService(),
		suite.limitsSvc,
		suite.identitySvc,
		suite.notifySvc,
		suite.emailSender,
		"https://app.example.com",
	)

	suite.orgID = uuid.New()
	suite.owner = common.Caller{UserID: uuid.New(), OrganizationID: suite.orgID, Role: models.RoleOwner}
	suite.manager = common.Caller{UserID: uuid.New(), OrganizationID: suite.orgID, Role: models.RoleManager}
	suite.ctx = context.Background()
}

func (suite *InvitationServiceTestSuite) TearDownTest() {
	suite.invitationRepo.AssertExpectations(suite.T())
	suite.profileRepo.AssertExpectations(suite.T())
	suite.preferenceRepo.AssertExpectations(suite.T())
	suite.unitRepo.AssertExpectations(suite.T())
	suite.identitySvc.AssertExpectations(suite.T())
}

func TestInvitationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationServiceTestSuite))
}

func (suite *InvitationServiceTestSuite) validInvitation() *models.Invitation {
	return &models.Invitation{
		ID:             uuid.New(),
		OrganizationID: suite.orgID,
		Email:          "new.tenant@example.com",
		Role:           models.RoleWorker,
		Token:          "f5b1c9",
		InvitedBy:      suite.owner.UserID,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
}

func (suite *InvitationServiceTestSuite) TestInvite_WorkerSuccess() {
	suite.limitsSvc.On("CheckLimit", suite.ctx, suite.orgID, models.LimitWorkers).Return(true, nil)
	suite.profileRepo.On("GetByEmail", suite.ctx, "worker@example.com").Return(nil, nil)
	suite.invitationRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Invitation")).Return(nil)
	suite.directorySvc.On("GetOrganization", suite.ctx, suite.orgID).
		Return(&models.Organization{ID: suite.orgID, Name: "Acme Properties"}, nil)
	suite.emailSender.On("SendEmail", suite.ctx, "worker@example.com", mock.Anything, mock.Anything).Return(nil)

	invitation, err := suite.svc.Invite(suite.ctx, suite.manager, InviteInput{
		Email: " Worker@Example.com ",
		Role:  models.RoleWorker,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "worker@example.com", invitation.Email)
	assert.Equal(suite.T(), suite.orgID, invitation.OrganizationID)
	assert.Len(suite.T(), invitation.Token, 64)
	assert.True(suite.T(), invitation.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
}

func (suite *InvitationServiceTestSuite) TestInvite_DuplicateEmailConflict() {
	suite.limitsSvc.On("CheckLimit", suite.ctx, suite.orgID, models.LimitWorkers).Return(true, nil)
	suite.profileRepo.On("GetByEmail", suite.ctx, "worker@example.com").
		Return(&models.Profile{ID: uuid.New(), Email: "worker@example.com"}, nil)

	_, err := suite.svc.Invite(suite.ctx, suite.owner, InviteInput{
		Email: "worker@example.com",
		Role:  models.RoleWorker,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindConflict))
}

func (suite *InvitationServiceTestSuite) TestInvite_TenantWithoutUnitRejected() {
	_, err := suite.svc.Invite(suite.ctx, suite.manager, InviteInput{
		Email: "tenant@example.com",
		Role:  models.RoleTenant,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindValidation))
}

func (suite *InvitationServiceTestSuite) TestInvite_OccupiedUnitConflict() {
	unitID := uuid.New()
	sitting := uuid.New()
	suite.unitRepo.On("GetByID", suite.ctx, suite.orgID, unitID).
		Return(&models.Unit{ID: unitID, UnitNumber: "2A", TenantID: &sitting}, nil)

	_, err := suite.svc.Invite(suite.ctx, suite.manager, InviteInput{
		Email:  "tenant@example.com",
		Role:   models.RoleTenant,
		UnitID: &unitID,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindConflict))
}

func (suite *InvitationServiceTestSuite) TestInvite_LimitExceeded() {
	unitID := uuid.New()
	suite.unitRepo.On("GetByID", suite.ctx, suite.orgID, unitID).
		Return(&models.Unit{ID: unitID, UnitNumber: "2A"}, nil)
	suite.limitsSvc.On("CheckLimit", suite.ctx, suite.orgID, models.LimitTenants).Return(false, nil)

	_, err := suite.svc.Invite(suite.ctx, suite.manager, InviteInput{
		Email:  "tenant@example.com",
		Role:   models.RoleTenant,
		UnitID: &unitID,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindLimitExceeded))
}

func (suite *InvitationServiceTestSuite) TestInvite_ManagerCannotInviteManager() {
	_, err := suite.svc.Invite(suite.ctx, suite.manager, InviteInput{
		Email: "peer@example.com",
		Role:  models.RoleManager,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindForbidden))
}

func (suite *InvitationServiceTestSuite) TestInvite_OwnerRoleRejected() {
	_, err := suite.svc.Invite(suite.ctx, suite.owner, InviteInput{
		Email: "boss@example.com",
		Role:  models.RoleOwner,
	})
	assert.True(suite.T(), common.IsKind(err, common.KindValidation))
}

func (suite *InvitationServiceTestSuite) TestAccept_Success() {
	invitation := suite.validInvitation()
	identityID := uuid.New()

	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)
	suite.identitySvc.On("CreateIdentity", suite.ctx, invitation.Email, "hunter2hunter2").Return(identityID, nil)
	suite.profileRepo.On("Create", suite.ctx, mock.MatchedBy(func(p *models.Profile) bool {
		return p.ID == identityID && p.Role == models.RoleWorker && p.EmailEnabled && !p.SMSEnabled
	})).Return(nil)
	suite.preferenceRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.NotificationPreference")).Return(nil)
	suite.invitationRepo.On("MarkAccepted", suite.ctx, invitation.Token).Return(true, nil)
	suite.directorySvc.On("GetOrganization", suite.ctx, suite.orgID).
		Return(&models.Organization{ID: suite.orgID, Name: "Acme Properties"}, nil)
	suite.notifySvc.On("DispatchAsync", mock.MatchedBy(func(e NotificationEvent) bool {
		return e.Type == models.EventInvitation && e.RecipientID == identityID
	})).Return()

	profile, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Worker",
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), identityID, profile.ID)
	assert.Equal(suite.T(), suite.orgID, profile.OrganizationID)
}

func (suite *InvitationServiceTestSuite) TestAccept_ExpiredToken() {
	invitation := suite.validInvitation()
	invitation.ExpiresAt = time.Now().Add(-time.Hour)
	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Worker",
	})
	assert.True(suite.T(), common.IsKind(err, common.KindNotFound))
}

func (suite *InvitationServiceTestSuite) TestAccept_AlreadyAcceptedToken() {
	invitation := suite.validInvitation()
	accepted := time.Now().Add(-time.Hour)
	invitation.AcceptedAt = &accepted
	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Worker",
	})
	assert.True(suite.T(), common.IsKind(err, common.KindNotFound))
}

func (suite *InvitationServiceTestSuite) TestAccept_EmailMismatch() {
	invitation := suite.validInvitation()
	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    "impostor@example.com",
		Password: "hunter2hunter2",
		FullName: "New Worker",
	})
	assert.True(suite.T(), common.IsKind(err, common.KindValidation))
}

// Losing a concurrent acceptance race surfaces at the final conditional
// token update; everything provisioned before it must be rolled back.
func (suite *InvitationServiceTestSuite) TestAccept_TokenRaceCompensatesSaga() {
	unitID := uuid.New()
	invitation := suite.validInvitation()
	invitation.Role = models.RoleTenant
	invitation.UnitID = &unitID
	identityID := uuid.New()

	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)
	suite.identitySvc.On("CreateIdentity", suite.ctx, invitation.Email, "hunter2hunter2").Return(identityID, nil)
	suite.profileRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Profile")).Return(nil)
	suite.unitRepo.On("AssignTenant", suite.ctx, unitID, identityID).Return(true, nil)
	suite.preferenceRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.NotificationPreference")).Return(nil)
	suite.invitationRepo.On("MarkAccepted", suite.ctx, invitation.Token).Return(false, nil)

	// Reverse-order compensation.
	suite.preferenceRepo.On("Delete", suite.ctx, identityID).Return(nil)
	suite.unitRepo.On("UnassignTenant", suite.ctx, suite.orgID, unitID).Return(nil)
	suite.profileRepo.On("Delete", suite.ctx, suite.orgID, identityID).Return(nil)
	suite.identitySvc.On("DeleteIdentity", suite.ctx, identityID).Return(nil)

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Tenant",
	})
	assert.True(suite.T(), common.IsKind(err, common.KindNotFound))
	suite.notifySvc.AssertNotCalled(suite.T(), "DispatchAsync", mock.Anything)
}

func (suite *InvitationServiceTestSuite) TestAccept_UnitClaimedMidSagaCompensates() {
	unitID := uuid.New()
	invitation := suite.validInvitation()
	invitation.Role = models.RoleTenant
	invitation.UnitID = &unitID
	identityID := uuid.New()

	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)
	suite.identitySvc.On("CreateIdentity", suite.ctx, invitation.Email, "hunter2hunter2").Return(identityID, nil)
	suite.profileRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Profile")).Return(nil)
	suite.unitRepo.On("AssignTenant", suite.ctx, unitID, identityID).Return(false, nil)

	suite.profileRepo.On("Delete", suite.ctx, suite.orgID, identityID).Return(nil)
	suite.identitySvc.On("DeleteIdentity", suite.ctx, identityID).Return(nil)

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Tenant",
	})
	assert.True(suite.T(), common.IsKind(err, common.KindConflict))
	suite.preferenceRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InvitationServiceTestSuite) TestAccept_IdentityFailureNothingToCompensate() {
	invitation := suite.validInvitation()
	suite.invitationRepo.On("GetByToken", suite.ctx, invitation.Token).Return(invitation, nil)
	suite.identitySvc.On("CreateIdentity", suite.ctx, invitation.Email, "hunter2hunter2").
		Return(uuid.Nil, errors.New("identity provider down"))

	_, err := suite.svc.AcceptInvitation(suite.ctx, AcceptInput{
		Token:    invitation.Token,
		Email:    invitation.Email,
		Password: "hunter2hunter2",
		FullName: "New Worker",
	})
	assert.Error(suite.T(), err)
	suite.profileRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InvitationServiceTestSuite) TestPurgeExpired() {
	suite.invitationRepo.On("DeleteExpired", suite.ctx).Return(int64(3), nil)

	purged, err := suite.svc.PurgeExpired(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), purged)
}
