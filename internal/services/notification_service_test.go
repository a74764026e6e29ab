package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fixflow/internal/common"
	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	notificationRepo *MockNotificationRepository
	preferenceRepo   *MockPreferenceRepository
	directorySvc     *MockDirectoryService
	limitsSvc        *MockLimitsService
	emailSender      *MockEmailSender
	smsSender        *MockSMSSender
	svc              NotificationService

	orgID       uuid.UUID
	recipientID uuid.UUID
	requestID   uuid.UUID
	ctx         context.Context
}

func (suite *NotificationServiceTestSuite) SetupTest() {
	suite.notificationRepo = new(MockNotificationRepository)
	suite.preferenceRepo = new(MockPreferenceRepository)
	suite.directorySvc = new(MockDirectoryService)
	suite.limitsSvc = new(MockLimitsService)
	suite.emailSender = new(MockEmailSender)
	suite.smsSender = new(MockSMSSender)

	suite.svc = NewNotificationService(
		suite.notificationRepo,
		suite.preferenceRepo,
		suite.directorySvc,
		suite.limitsSvc,
		suite.emailSender,
		suite.smsSender,
		"https://app.example.com",
	)

	suite.orgID = uuid.New()
	suite.recipientID = uuid.New()
	suite.requestID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *NotificationServiceTestSuite) TearDownTest() {
	suite.notificationRepo.AssertExpectations(suite.T())
	suite.emailSender.AssertExpectations(suite.T())
	suite.smsSender.AssertExpectations(suite.T())
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}

func (suite *NotificationServiceTestSuite) recipient(emailOn, smsOn bool, phone *string) *models.Profile {
	return &models.Profile{
		ID:             suite.recipientID,
		OrganizationID: suite.orgID,
		Role:           models.RoleManager,
		FullName:       "Pat Manager",
		Email:          "pat@example.com",
		Phone:          phone,
		EmailEnabled:   emailOn,
		SMSEnabled:     smsOn,
	}
}

func (suite *NotificationServiceTestSuite) event() NotificationEvent {
	return NotificationEvent{
		Type:           models.EventNewRequest,
		RecipientID:    suite.recipientID,
		OrganizationID: suite.orgID,
		RequestID:      &suite.requestID,
		RequestTitle:   "Leaking faucet",
	}
}

func (suite *NotificationServiceTestSuite) TestDispatch_EmailOnly() {
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, false, nil), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.notificationRepo.On("Create", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Channel == models.ChannelEmail && n.Status == models.NotificationPending
	})).Return(nil)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", mock.Anything, mock.Anything).Return(nil)
	suite.notificationRepo.On("MarkResult", suite.ctx, mock.Anything, models.NotificationSent, (*string)(nil)).Return(nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.NoError(suite.T(), err)
	suite.smsSender.AssertNotCalled(suite.T(), "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestDispatch_BothChannels() {
	phone := "+15551234567"
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, true, &phone), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.limitsSvc.On("CheckLimit", suite.ctx, suite.orgID, models.LimitSMS).Return(true, nil)
	suite.notificationRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Notification")).Return(nil).Times(2)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", mock.Anything, mock.Anything).Return(nil)
	suite.smsSender.On("SendSMS", suite.ctx, phone, mock.Anything).Return(nil)
	suite.notificationRepo.On("MarkResult", suite.ctx, mock.Anything, models.NotificationSent, (*string)(nil)).Return(nil).Times(2)
	suite.limitsSvc.On("RecordSMS", suite.ctx, suite.orgID).Return(nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.NoError(suite.T(), err)
}

// Dispatches run one goroutine per event, so the template cache must be
// safe to share. Run with -race.
func (suite *NotificationServiceTestSuite) TestDispatch_ConcurrentDispatchesShareTemplates() {
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, false, nil), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.notificationRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Notification")).Return(nil)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", mock.Anything, mock.Anything).Return(nil)
	suite.notificationRepo.On("MarkResult", suite.ctx, mock.Anything, models.NotificationSent, (*string)(nil)).Return(nil)

	eventTypes := []models.EventType{
		models.EventNewRequest, models.EventStatusUpdate,
		models.EventAssignment, models.EventEmergency,
	}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		event := suite.event()
		event.Type = eventTypes[i%len(eventTypes)]
		go func(event NotificationEvent) {
			defer wg.Done()
			assert.NoError(suite.T(), suite.svc.Dispatch(suite.ctx, event))
		}(event)
	}
	wg.Wait()
}

func (suite *NotificationServiceTestSuite) TestDispatch_PreferenceOptOut() {
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, false, nil), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(&models.NotificationPreference{
		UserID:     suite.recipientID,
		NewRequest: false,
	}, nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.NoError(suite.T(), err)
	suite.emailSender.AssertNotCalled(suite.T(), "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.notificationRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestDispatch_EmailFailureRecordedAndSurfaced() {
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, false, nil), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.notificationRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Notification")).Return(nil)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", mock.Anything, mock.Anything).
		Return(errors.New("smtp connection refused"))
	suite.notificationRepo.On("MarkResult", suite.ctx, mock.Anything, models.NotificationFailed, mock.AnythingOfType("*string")).Return(nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.True(suite.T(), common.IsKind(err, common.KindChannelFailure))
}

func (suite *NotificationServiceTestSuite) TestDispatch_SMSOverLimitSkipped() {
	phone := "+15551234567"
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(false, true, &phone), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.limitsSvc.On("CheckLimit", suite.ctx, suite.orgID, models.LimitSMS).Return(false, nil)
	suite.notificationRepo.On("Create", suite.ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Channel == models.ChannelSMS && n.Status == models.NotificationSkipped && n.Error != nil
	})).Return(nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.NoError(suite.T(), err)
	suite.smsSender.AssertNotCalled(suite.T(), "SendSMS", mock.Anything, mock.Anything, mock.Anything)
	suite.limitsSvc.AssertNotCalled(suite.T(), "RecordSMS", mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestDispatch_SMSEnabledWithoutPhoneSkipsSMS() {
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(false, true, nil), nil)
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)

	err := suite.svc.Dispatch(suite.ctx, suite.event())
	assert.NoError(suite.T(), err)
	suite.smsSender.AssertNotCalled(suite.T(), "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestDispatch_UnknownEventTypeIgnored() {
	err := suite.svc.Dispatch(suite.ctx, NotificationEvent{
		Type:        models.EventType("password_reset"),
		RecipientID: suite.recipientID,
	})
	assert.NoError(suite.T(), err)
	suite.directorySvc.AssertNotCalled(suite.T(), "GetProfile", mock.Anything, mock.Anything)
}

func (suite *NotificationServiceTestSuite) TestRetryFailed_ResendsAndCounts() {
	phone := "+15551234567"
	subject := "Update on your request: Leaking faucet"
	emailRow := &models.Notification{
		ID:             uuid.New(),
		OrganizationID: suite.orgID,
		UserID:         suite.recipientID,
		EventType:      models.EventStatusUpdate,
		Channel:        models.ChannelEmail,
		Subject:        &subject,
		Body:           "body",
		Status:         models.NotificationFailed,
	}
	smsRow := &models.Notification{
		ID:             uuid.New(),
		OrganizationID: suite.orgID,
		UserID:         suite.recipientID,
		EventType:      models.EventStatusUpdate,
		Channel:        models.ChannelSMS,
		Body:           "sms body",
		Status:         models.NotificationFailed,
	}

	suite.notificationRepo.On("ListFailed", suite.ctx, maxDispatchRetries, 100).
		Return([]*models.Notification{emailRow, smsRow}, nil)
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, true, &phone), nil)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", subject, "body").Return(nil)
	suite.smsSender.On("SendSMS", suite.ctx, phone, "sms body").Return(nil)
	suite.notificationRepo.On("IncrementRetry", suite.ctx, emailRow.ID, models.NotificationSent, (*string)(nil)).Return(nil)
	suite.notificationRepo.On("IncrementRetry", suite.ctx, smsRow.ID, models.NotificationSent, (*string)(nil)).Return(nil)
	suite.limitsSvc.On("RecordSMS", suite.ctx, suite.orgID).Return(nil)

	retried, err := suite.svc.RetryFailed(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, retried)
}

func (suite *NotificationServiceTestSuite) TestRetryFailed_StillFailingIncrementsRetry() {
	subject := "s"
	row := &models.Notification{
		ID:        uuid.New(),
		UserID:    suite.recipientID,
		EventType: models.EventNewRequest,
		Channel:   models.ChannelEmail,
		Subject:   &subject,
		Body:      "body",
		Status:    models.NotificationFailed,
	}

	suite.notificationRepo.On("ListFailed", suite.ctx, maxDispatchRetries, 100).
		Return([]*models.Notification{row}, nil)
	suite.directorySvc.On("GetProfile", suite.ctx, suite.recipientID).Return(suite.recipient(true, false, nil), nil)
	suite.emailSender.On("SendEmail", suite.ctx, "pat@example.com", subject, "body").
		Return(errors.New("still down"))
	suite.notificationRepo.On("IncrementRetry", suite.ctx, row.ID, models.NotificationFailed, mock.AnythingOfType("*string")).Return(nil)

	retried, err := suite.svc.RetryFailed(suite.ctx)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, retried)
}

func (suite *NotificationServiceTestSuite) TestGetPreferences_DefaultsWhenNoRow() {
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)

	pref, err := suite.svc.GetPreferences(suite.ctx, suite.recipientID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), pref.NewRequest)
	assert.True(suite.T(), pref.Emergency)
}

func (suite *NotificationServiceTestSuite) TestUpdatePreferences_CreatesWhenMissing() {
	pref := &models.NotificationPreference{UserID: suite.recipientID, NewRequest: true}
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).Return(nil, nil)
	suite.preferenceRepo.On("Create", suite.ctx, pref).Return(nil)

	assert.NoError(suite.T(), suite.svc.UpdatePreferences(suite.ctx, pref))
}

func (suite *NotificationServiceTestSuite) TestUpdatePreferences_UpdatesExisting() {
	pref := &models.NotificationPreference{UserID: suite.recipientID, NewRequest: false}
	suite.preferenceRepo.On("Get", suite.ctx, suite.recipientID).
		Return(&models.NotificationPreference{UserID: suite.recipientID}, nil)
	suite.preferenceRepo.On("Update", suite.ctx, pref).Return(nil)

	assert.NoError(suite.T(), suite.svc.UpdatePreferences(suite.ctx, pref))
}
