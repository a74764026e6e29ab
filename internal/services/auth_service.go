package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"time"

	"fixflow/internal/caching"
	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = 1 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	trialPeriod     = 14 * 24 * time.Hour
	defaultPlanID   = "starter"
)

// SignupInput creates a new organization with its owner account.
type SignupInput struct {
	OrganizationName string
	FullName         string
	Email            string
	Password         string
}

// TokenPair is the issued credential set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthService issues platform tokens. Password storage and verification
// live in the identity provider; this service only orchestrates.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*models.Organization, *models.Profile, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.Profile, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type authService struct {
	orgRepo        repositories.OrganizationRepository
	profileRepo    repositories.ProfileRepository
	preferenceRepo repositories.PreferenceRepository
	identitySvc    IdentityService
	cacheSvc       caching.CacheService
	jwtSecret      []byte
	now            func() time.Time
}

func NewAuthService(
	orgRepo repositories.OrganizationRepository,
	profileRepo repositories.ProfileRepository,
	preferenceRepo repositories.PreferenceRepository,
	identitySvc IdentityService,
	cacheSvc caching.CacheService,
	jwtSecret string,
) AuthService {
	return &authService{
		orgRepo:        orgRepo,
		profileRepo:    profileRepo,
		preferenceRepo: preferenceRepo,
		identitySvc:    identitySvc,
		cacheSvc:       cacheSvc,
		jwtSecret:      []byte(jwtSecret),
		now:            time.Now,
	}
}

const orgCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newOrgCode generates the short uppercase code usable interchangeably
// with the organization id for lookup. Ambiguous characters excluded.
func newOrgCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, 8)
	for i, b := range buf {
		code[i] = orgCodeAlphabet[int(b)%len(orgCodeAlphabet)]
	}
	return string(code), nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, slug)
	return strings.Trim(slug, "-")
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.Organization, *models.Profile, *TokenPair, error) {
	if err := common.ValidateRequiredString(input.OrganizationName, "organization_name"); err != nil {
		return nil, nil, nil, err
	}
	if err := common.ValidateRequiredString(input.FullName, "full_name"); err != nil {
		return nil, nil, nil, err
	}
	if err := common.ValidateRequiredString(input.Email, "email"); err != nil {
		return nil, nil, nil, err
	}
	if len(input.Password) < 8 {
		return nil, nil, nil, common.Validation("password must be at least 8 characters")
	}

	email := common.NormalizeEmail(input.Email)
	if existing, err := s.profileRepo.GetByEmail(ctx, email); err != nil {
		return nil, nil, nil, err
	} else if existing != nil {
		return nil, nil, nil, common.Conflict("an account with email %s already exists", email)
	}

	code, err := newOrgCode()
	if err != nil {
		return nil, nil, nil, err
	}
	trialEnd := s.now().Add(trialPeriod)
	org := &models.Organization{
		ID:                 uuid.New(),
		Name:               input.OrganizationName,
		Slug:               slugify(input.OrganizationName),
		Code:               code,
		PlanID:             defaultPlanID,
		SubscriptionStatus: models.SubscriptionStatusTrialing,
		TrialEndsAt:        &trialEnd,
	}

	var identityID uuid.UUID
	profile := &models.Profile{
		OrganizationID: org.ID,
		Role:           models.RoleOwner,
		FullName:       input.FullName,
		Email:          email,
		EmailEnabled:   true,
	}

	steps := []sagaStep{
		{
			name: "create identity",
			action: func(ctx context.Context) error {
				id, err := s.identitySvc.CreateIdentity(ctx, email, input.Password)
				if err != nil {
					return err
				}
				identityID = id
				profile.ID = id
				return nil
			},
			compensate: func(ctx context.Context) {
				if err := s.identitySvc.DeleteIdentity(ctx, identityID); err != nil {
					log.Printf("signup compensation failed: delete identity %s: %v", identityID, err)
				}
			},
		},
		{
			name: "create organization",
			action: func(ctx context.Context) error {
				return s.orgRepo.Create(ctx, org)
			},
		},
		{
			name: "create owner profile",
			action: func(ctx context.Context) error {
				return s.profileRepo.Create(ctx, profile)
			},
		},
		{
			name: "create notification preferences",
			action: func(ctx context.Context) error {
				return s.preferenceRepo.Create(ctx, &models.NotificationPreference{
					UserID:       profile.ID,
					NewRequest:   true,
					StatusUpdate: true,
					Assignment:   true,
					Emergency:    true,
					Comment:      true,
				})
			},
		},
	}
	if err := runSaga(ctx, steps); err != nil {
		return nil, nil, nil, err
	}

	tokens, err := s.issueTokens(ctx, profile.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return org, profile, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.Profile, *TokenPair, error) {
	userID, err := s.identitySvc.VerifyPassword(ctx, common.NormalizeEmail(email), password)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, common.Unauthenticated("no profile for this account")
	}

	tokens, err := s.issueTokens(ctx, profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "refresh:" + hex.EncodeToString(sum[:])
}

func (s *authService) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	refresh := hex.EncodeToString(buf)
	if err := s.cacheSvc.SetString(ctx, refreshKey(refresh), userID.String(), refreshTokenTTL); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// Refresh rotates the refresh token: the old one is deleted before the
// new pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	key := refreshKey(refreshToken)
	userIDStr, err := s.cacheSvc.GetString(ctx, key)
	if err != nil {
		return nil, err
	}
	if userIDStr == "" {
		return nil, common.Unauthenticated("invalid refresh token")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, common.Unauthenticated("invalid refresh token")
	}

	_ = s.cacheSvc.Delete(ctx, key)
	return s.issueTokens(ctx, userID)
}
