package services

import (
	"context"
	"strings"
	"time"

	"fixflow/internal/caching"
	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

// DirectoryService is the read-only lookup surface for organizations
// and profiles. Every other service depends on it.
type DirectoryService interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	// LookupOrganization accepts either an organization UUID or its
	// short uppercase code.
	LookupOrganization(ctx context.Context, idOrCode string) (*models.Organization, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
}

type directoryService struct {
	orgRepo     repositories.OrganizationRepository
	profileRepo repositories.ProfileRepository
	cacheSvc    caching.CacheService
}

func NewDirectoryService(orgRepo repositories.OrganizationRepository, profileRepo repositories.ProfileRepository, cacheSvc caching.CacheService) DirectoryService {
	return &directoryService{
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		cacheSvc:    cacheSvc,
	}
}

func (s *directoryService) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	if cached, err := s.cacheSvc.GetOrganization(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, common.NotFound("organization not found")
	}

	// Cache misses are tolerable; lookup correctness never depends on redis.
	_ = s.cacheSvc.SetOrganization(ctx, org, 5*time.Minute)
	return org, nil
}

func (s *directoryService) LookupOrganization(ctx context.Context, idOrCode string) (*models.Organization, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if id, err := uuid.Parse(idOrCode); err == nil {
		return s.GetOrganization(ctx, id)
	}

	org, err := s.orgRepo.GetByCode(ctx, strings.ToUpper(idOrCode))
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, common.NotFound("organization not found")
	}
	return org, nil
}

func (s *directoryService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, common.NotFound("profile not found")
	}
	return profile, nil
}

func (s *directoryService) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, common.NotFound("profile not found")
	}
	return profile, nil
}
