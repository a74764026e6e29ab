package services

import (
	"context"
	"testing"
	"time"

	"fixflow/internal/common"
	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LimitsServiceTestSuite struct {
	suite.Suite
	directorySvc *MockDirectoryService
	propertyRepo *MockPropertyRepository
	unitRepo     *MockUnitRepository
	profileRepo  *MockProfileRepository
	cacheSvc     *MockCacheService
	svc          LimitsService

	orgID uuid.UUID
	ctx   context.Context
}

func (suite *LimitsServiceTestSuite) SetupTest() {
	suite.directorySvc = new(MockDirectoryService)
	suite.propertyRepo = new(MockPropertyRepository)
	suite.unitRepo = new(MockUnitRepository)
	suite.profileRepo = new(MockProfileRepository)
	suite.cacheSvc = new(MockCacheService)

	suite.svc = NewLimitsService(
		suite.directorySvc,
		suite.propertyRepo,
		suite.unitRepo,
		suite.profileRepo,
		suite.cacheSvc,
	)

	suite.orgID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *LimitsServiceTestSuite) TearDownTest() {
	suite.directorySvc.AssertExpectations(suite.T())
	suite.propertyRepo.AssertExpectations(suite.T())
	suite.profileRepo.AssertExpectations(suite.T())
	suite.cacheSvc.AssertExpectations(suite.T())
}

func TestLimitsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LimitsServiceTestSuite))
}

func (suite *LimitsServiceTestSuite) orgOnPlan(planID string) {
	suite.directorySvc.On("GetOrganization", suite.ctx, suite.orgID).
		Return(&models.Organization{ID: suite.orgID, Name: "Acme Properties", PlanID: planID}, nil)
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_UnderLimit() {
	suite.orgOnPlan("starter")
	suite.propertyRepo.On("Count", suite.ctx, suite.orgID).Return(2, nil)

	allowed, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitProperties)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), allowed)
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_AtLimitDenied() {
	suite.orgOnPlan("starter")
	suite.propertyRepo.On("Count", suite.ctx, suite.orgID).Return(3, nil)

	allowed, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitProperties)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), allowed)
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_WorkersCountedByRole() {
	suite.orgOnPlan("growth")
	suite.profileRepo.On("CountByRole", suite.ctx, suite.orgID, models.RoleWorker).Return(25, nil)

	allowed, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitWorkers)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), allowed)
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_UnlimitedPlanSkipsUsageQuery() {
	suite.orgOnPlan("unlimited")

	allowed, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitTenants)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), allowed)
	suite.profileRepo.AssertNotCalled(suite.T(), "CountByRole", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_UnknownPlanRejected() {
	suite.orgOnPlan("legacy-gold")

	_, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitProperties)
	assert.True(suite.T(), common.IsKind(err, common.KindValidation))
}

func (suite *LimitsServiceTestSuite) TestCheckLimit_SMSUsesMonthBucket() {
	suite.orgOnPlan("starter")
	fixed := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	suite.svc.(*limitsService).now = func() time.Time { return fixed }
	suite.cacheSvc.On("GetSMSCount", suite.ctx, suite.orgID, common.MonthBucket(2026, 3)).Return(int64(100), nil)

	allowed, err := suite.svc.CheckLimit(suite.ctx, suite.orgID, models.LimitSMS)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), allowed)
}

func (suite *LimitsServiceTestSuite) TestRecordSMS() {
	fixed := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	suite.svc.(*limitsService).now = func() time.Time { return fixed }
	suite.cacheSvc.On("IncrementSMSCount", suite.ctx, suite.orgID, common.MonthBucket(2026, 3)).Return(int64(1), nil)

	assert.NoError(suite.T(), suite.svc.RecordSMS(suite.ctx, suite.orgID))
}

func (suite *LimitsServiceTestSuite) TestPlanCatalog() {
	plan, ok := PlanByID("starter")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), 3, *plan.Properties)
	assert.Equal(suite.T(), 4900, plan.AmountCents)

	_, ok = PlanByID("nonexistent")
	assert.False(suite.T(), ok)
}
