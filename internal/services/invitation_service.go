package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"fixflow/internal/common"
	"fixflow/internal/models"
	"fixflow/internal/repositories"

	"github.com/google/uuid"
)

const invitationTTL = 7 * 24 * time.Hour

// sagaStep pairs a provisioning action with its compensation. Steps run
// in order; on the first failure the compensations of every completed
// step run in reverse order. There is no multi-resource atomic commit
// across the identity provider and our own storage, so rollback is
// explicit.
type sagaStep struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context)
}

func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		if err := step.action(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].compensate != nil {
					steps[j].compensate(ctx)
				}
			}
			return err
		}
	}
	return nil
}

// InviteInput describes who is being invited and as what.
type InviteInput struct {
	Email string
	Role  models.Role
	// UnitID is required when inviting a tenant; the unit is bound on
	// acceptance, not at invite time.
	UnitID *uuid.UUID
}

// AcceptInput carries the token-based acceptance payload.
type AcceptInput struct {
	Token    string
	Email    string
	Password string
	FullName string
}

// InvitationService provisions accounts. Invite issues a single-use
// token bound to an email and role; AcceptInvitation consumes it and
// runs the provisioning saga (identity, profile, unit binding,
// notification preferences) with explicit compensation.
type InvitationService interface {
	Invite(ctx context.Context, caller common.Caller, input InviteInput) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, input AcceptInput) (*models.Profile, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	profileRepo    repositories.ProfileRepository
	preferenceRepo repositories.PreferenceRepository
	unitRepo       repositories.UnitRepository
	directorySvc   DirectoryService
	authzSvc       AuthzService
	limitsSvc      LimitsService
	identitySvc    IdentityService
	notifySvc      NotificationService
	emailSender    EmailSender
	appBaseURL     string
	now            func() time.Time
}

func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	profileRepo repositories.ProfileRepository,
	preferenceRepo repositories.PreferenceRepository,
	unitRepo repositories.UnitRepository,
	directorySvc DirectoryService,
	authzSvc AuthzService,
	limitsSvc LimitsService,
	identitySvc IdentityService,
	notifySvc NotificationService,
	emailSender EmailSender,
	appBaseURL string,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		profileRepo:    profileRepo,
		preferenceRepo: preferenceRepo,
		unitRepo:       unitRepo,
		directorySvc:   directorySvc,
		authzSvc:       authzSvc,
		limitsSvc:      limitsSvc,
		identitySvc:    identitySvc,
		notifySvc:      notifySvc,
		emailSender:    emailSender,
		appBaseURL:     appBaseURL,
		now:            time.Now,
	}
}

// newInvitationToken returns an opaque 64-character hex token.
func newInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func limitCategoryForRole(role models.Role) *models.LimitCategory {
	switch role {
	case models.RoleTenant:
		c := models.LimitTenants
		return &c
	case models.RoleWorker:
		c := models.LimitWorkers
		return &c
	}
	return nil
}

func (s *invitationService) Invite(ctx context.Context, caller common.Caller, input InviteInput) (*models.Invitation, error) {
	email := common.NormalizeEmail(input.Email)
	if err := common.ValidateRequiredString(email, "email"); err != nil {
		return nil, err
	}
	if !models.ValidRole(string(input.Role)) || input.Role == models.RoleOwner {
		return nil, common.Validation("role must be one of: manager, worker, tenant")
	}

	if err := s.authzSvc.Authorize(caller, s.authzSvc.InviteAction(input.Role), caller.OrganizationID); err != nil {
		return nil, err
	}
	if !s.authzSvc.CanInvite(caller.Role, input.Role) {
		return nil, common.Forbidden("role %s may not invite a %s", caller.Role, input.Role)
	}

	if input.Role == models.RoleTenant {
		if input.UnitID == nil {
			return nil, common.Validation("tenant invitations require a unit")
		}
		unit, err := s.unitRepo.GetByID(ctx, caller.OrganizationID, *input.UnitID)
		if err != nil {
			return nil, err
		}
		if unit == nil {
			return nil, common.Validation("unit does not exist in this organization")
		}
		if unit.TenantID != nil {
			return nil, common.Conflict("unit %s is already occupied", unit.UnitNumber)
		}
	}

	if category := limitCategoryForRole(input.Role); category != nil {
		allowed, err := s.limitsSvc.CheckLimit(ctx, caller.OrganizationID, *category)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, common.LimitExceeded("plan limit for %s reached", *category)
		}
	}

	if existing, err := s.profileRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, common.Conflict("an account with email %s already exists", email)
	}

	token, err := newInvitationToken()
	if err != nil {
		return nil, err
	}

	invitation := &models.Invitation{
		ID:             uuid.New(),
		OrganizationID: caller.OrganizationID,
		Email:          email,
		Role:           input.Role,
		Token:          token,
		UnitID:         input.UnitID,
		InvitedBy:      caller.UserID,
		ExpiresAt:      s.now().Add(invitationTTL),
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, err
	}

	s.sendInviteEmail(ctx, invitation)
	return invitation, nil
}

// sendInviteEmail is best-effort: the invitee has no profile yet, so
// the email goes straight to the channel instead of the dispatcher.
func (s *invitationService) sendInviteEmail(ctx context.Context, invitation *models.Invitation) {
	org, err := s.directorySvc.GetOrganization(ctx, invitation.OrganizationID)
	if err != nil {
		log.Printf("invite email skipped: organization lookup failed: %v", err)
		return
	}
	link := fmt.Sprintf("%s/invitations/accept?token=%s", s.appBaseURL, invitation.Token)
	subject := fmt.Sprintf("You're invited to %s", org.Name)
	body := fmt.Sprintf(
		`<p>Hello,</p><p>You have been invited to join <strong>%s</strong> as a %s.</p><p><a href="%s">Accept your invitation</a> (expires %s).</p>`,
		org.Name, invitation.Role, link, invitation.ExpiresAt.Format("Jan 2, 2006"),
	)
	if err := s.emailSender.SendEmail(ctx, invitation.Email, subject, body); err != nil {
		log.Printf("invite email failed: to=%s: %v", invitation.Email, err)
	}
}

func (s *invitationService) AcceptInvitation(ctx context.Context, input AcceptInput) (*models.Profile, error) {
	if err := common.ValidateRequiredString(input.Token, "token"); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.Password, "password"); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.FullName, "full_name"); err != nil {
		return nil, err
	}

	invitation, err := s.invitationRepo.GetByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if invitation == nil || invitation.AcceptedAt != nil || invitation.ExpiresAt.Before(s.now()) {
		return nil, common.NotFound("invalid or expired invitation token")
	}
	if common.NormalizeEmail(input.Email) != common.NormalizeEmail(invitation.Email) {
		return nil, common.Validation("email does not match the invitation")
	}

	var identityID uuid.UUID
	profile := &models.Profile{
		OrganizationID: invitation.OrganizationID,
		Role:           invitation.Role,
		FullName:       input.FullName,
		Email:          common.NormalizeEmail(invitation.Email),
		EmailEnabled:   true,
		SMSEnabled:     false,
	}

	steps := []sagaStep{
		{
			name: "create identity",
			action: func(ctx context.Context) error {
				id, err := s.identitySvc.CreateIdentity(ctx, profile.Email, input.Password)
				if err != nil {
					return err
				}
				identityID = id
				profile.ID = id
				return nil
			},
			compensate: func(ctx context.Context) {
				if err := s.identitySvc.DeleteIdentity(ctx, identityID); err != nil {
					log.Printf("saga compensation failed: delete identity %s: %v", identityID, err)
				}
			},
		},
		{
			name: "create profile",
			action: func(ctx context.Context) error {
				return s.profileRepo.Create(ctx, profile)
			},
			compensate: func(ctx context.Context) {
				if err := s.profileRepo.Delete(ctx, profile.OrganizationID, profile.ID); err != nil {
					log.Printf("saga compensation failed: delete profile %s: %v", profile.ID, err)
				}
			},
		},
	}

	if invitation.UnitID != nil {
		unitID := *invitation.UnitID
		steps = append(steps, sagaStep{
			name: "bind unit",
			action: func(ctx context.Context) error {
				claimed, err := s.unitRepo.AssignTenant(ctx, unitID, profile.ID)
				if err != nil {
					return err
				}
				if !claimed {
					return common.Conflict("unit is already occupied")
				}
				return nil
			},
			compensate: func(ctx context.Context) {
				if err := s.unitRepo.UnassignTenant(ctx, invitation.OrganizationID, unitID); err != nil {
					log.Printf("saga compensation failed: unassign unit %s: %v", unitID, err)
				}
			},
		})
	}

	steps = append(steps, sagaStep{
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
		compensate: func(ctx context.Context) {
			if err := s.preferenceRepo.Delete(ctx, profile.ID); err != nil {
				log.Printf("saga compensation failed: delete preferences %s: %v", profile.ID, err)
			}
		},
	})

	// Consuming the token is the last step so a token is never marked
	// accepted without its profile existing. The conditional update is
	// the single winner-picker under concurrent acceptance: a loser
	// lands here after the full saga and compensates everything.
	steps = append(steps, sagaStep{
		name: "consume token",
		action: func(ctx context.Context) error {
			consumed, err := s.invitationRepo.MarkAccepted(ctx, input.Token)
			if err != nil {
				return err
			}
			if !consumed {
				return common.NotFound("invalid or expired invitation token")
			}
			return nil
		},
	})

	if err := runSaga(ctx, steps); err != nil {
		return nil, err
	}

	org, orgErr := s.directorySvc.GetOrganization(ctx, invitation.OrganizationID)
	orgName := ""
	if orgErr == nil {
		orgName = org.Name
	}
	s.notifySvc.DispatchAsync(NotificationEvent{
		Type:           models.EventInvitation,
		RecipientID:    profile.ID,
		OrganizationID: invitation.OrganizationID,
		RequestTitle:   orgName,
	})
	return profile, nil
}

func (s *invitationService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.invitationRepo.DeleteExpired(ctx)
}
