package services

import (
	"context"
	"time"

	"fixflow/internal/caching"
	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

// Plan catalog. A nil limit means unlimited.
var availablePlans = map[string]models.Plan{
	"starter": {
		ID:          "starter",
		Name:        "Starter",
		Properties:  intPtr(3),
		Units:       intPtr(25),
		Tenants:     intPtr(25),
		Workers:     intPtr(5),
		SMSPerMonth: intPtr(100),
		AmountCents: 4900,
		Currency:    "USD",
	},
	"growth": {
		ID:          "growth",
		Name:        "Growth",
		Properties:  intPtr(20),
		Units:       intPtr(250),
		Tenants:     intPtr(250),
		Workers:     intPtr(25),
		SMSPerMonth: intPtr(1000),
		AmountCents: 14900,
		Currency:    "USD",
	},
	"unlimited": {
		ID:          "unlimited",
		Name:        "Unlimited",
		AmountCents: 39900,
		Currency:    "USD",
	},
}

// PlanByID returns a plan from the catalog.
func PlanByID(id string) (models.Plan, bool) {
	plan, ok := availablePlans[id]
	return plan, ok
}

// AvailablePlans returns the full plan catalog.
func AvailablePlans() map[string]models.Plan {
	return availablePlans
}

// LimitsService is the subscription usage gate. CheckLimit is read-only
// and returns false (not an error) when usage has reached the limit;
// callers refuse the mutation with a LimitExceeded error.
type LimitsService interface {
	CheckLimit(ctx context.Context, organizationID uuid.UUID, category models.LimitCategory) (bool, error)
	// RecordSMS bumps the monthly SMS counter after a successful send.
	RecordSMS(ctx context.Context, organizationID uuid.UUID) error
}

type limitsService struct {
	directorySvc DirectoryService
	propertyRepo repositories.PropertyRepository
	unitRepo     repositories.UnitRepository
	profileRepo  repositories.ProfileRepository
	cacheSvc     caching.CacheService
	now          func() time.Time
}

func NewLimitsService(
	directorySvc DirectoryService,
	propertyRepo repositories.PropertyRepository,
	unitRepo repositories.UnitRepository,
	profileRepo repositories.ProfileRepository,
	cacheSvc caching.CacheService,
) LimitsService {
	return &limitsService{
		directorySvc: directorySvc,
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		profileRepo:  profileRepo,
		cacheSvc:     cacheSvc,
		now:          time.Now,
	}
}

func (s *limitsService) CheckLimit(ctx context.Context, organizationID uuid.UUID, category models.LimitCategory) (bool, error) {
	org, err := s.directorySvc.GetOrganization(ctx, organizationID)
	if err != nil {
		return false, err
	}

	plan, ok := PlanByID(org.PlanID)
	if !ok {
		return false, common.Validation("organization has unknown plan %q", org.PlanID)
	}

	limit := plan.Limit(category)
	if limit == nil {
		return true, nil
	}

	usage, err := s.currentUsage(ctx, organizationID, category)
	if err != nil {
		return false, err
	}
	return usage < *limit, nil
}

func (s *limitsService) currentUsage(ctx context.Context, organizationID uuid.UUID, category models.LimitCategory) (int, error) {
	switch category {
	case models.LimitProperties:
		return s.propertyRepo.Count(ctx, organizationID)
	case models.LimitUnits:
		return s.unitRepo.Count(ctx, organizationID)
	case models.LimitTenants:
		return s.profileRepo.CountByRole(ctx, organizationID, models.RoleTenant)
	case models.LimitWorkers:
		return s.profileRepo.CountByRole(ctx, organizationID, models.RoleWorker)
	case models.LimitSMS:
		now := s.now()
		count, err := s.cacheSvc.GetSMSCount(ctx, organizationID, common.MonthBucket(now.Year(), int(now.Month())))
		return int(count), err
	}
	return 0, common.Validation("unknown resource category %q", category)
}

func (s *limitsService) RecordSMS(ctx context.Context, organizationID uuid.UUID) error {
	now := s.now()
	_, err := s.cacheSvc.IncrementSMSCount(ctx, organizationID, common.MonthBucket(now.Year(), int(now.Month())))
	return err
}
