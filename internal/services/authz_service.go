package services

import (
	"fixflow/internal/common"
	"fixflow/internal/models"

	"github.com/google/uuid"
)

// Action names a capability-checked operation. All role comparisons in
// the codebase live in this file; call sites never inspect roles
// directly.
type Action string

const (
	ActionCreateProperty  Action = "property:create"
	ActionManageProperty  Action = "property:manage"
	ActionCreateUnit      Action = "unit:create"
	ActionUnassignTenant  Action = "unit:unassign_tenant"
	ActionCreateRequest   Action = "request:create"
	ActionUpdateRequest   Action = "request:update"
	ActionTransition      Action = "request:transition"
	ActionAssignRequest   Action = "request:assign"
	ActionInviteManager   Action = "invite:manager"
	ActionInviteWorker    Action = "invite:worker"
	ActionInviteTenant    Action = "invite:tenant"
	ActionManageBilling   Action = "billing:manage"
	ActionListMembers     Action = "members:list"
)

var actionRoles = map[Action][]models.Role{
	ActionCreateProperty: {models.RoleOwner, models.RoleManager},
	ActionManageProperty: {models.RoleOwner, models.RoleManager},
	ActionCreateUnit:     {models.RoleOwner, models.RoleManager},
	ActionUnassignTenant: {models.RoleOwner, models.RoleManager},
	ActionCreateRequest:  {models.RoleTenant},
	ActionUpdateRequest:  {models.RoleOwner, models.RoleManager, models.RoleTenant},
	ActionTransition:     {models.RoleOwner, models.RoleManager, models.RoleWorker, models.RoleTenant},
	ActionAssignRequest:  {models.RoleOwner, models.RoleManager},
	ActionInviteManager:  {models.RoleOwner},
	ActionInviteWorker:   {models.RoleOwner, models.RoleManager},
	ActionInviteTenant:   {models.RoleOwner, models.RoleManager},
	ActionManageBilling:  {models.RoleOwner},
	ActionListMembers:    {models.RoleOwner, models.RoleManager},
}

// inviteRank orders roles for the "inviter must outrank invitee" rule.
var inviteRank = map[models.Role]int{
	models.RoleOwner:   3,
	models.RoleManager: 2,
	models.RoleWorker:  1,
	models.RoleTenant:  1,
}

// AuthzService makes pure capability decisions over an already-resolved
// caller. It has no side effects and no storage access.
type AuthzService interface {
	Authorize(caller common.Caller, action Action, targetOrganizationID uuid.UUID) error
	CanInvite(inviter, invited models.Role) bool
	InviteAction(invited models.Role) Action
}

type authzService struct{}

func NewAuthzService() AuthzService {
	return &authzService{}
}

// Authorize fails with Forbidden when the target organization is not the
// caller's, or when the action requires a role the caller does not hold.
func (s *authzService) Authorize(caller common.Caller, action Action, targetOrganizationID uuid.UUID) error {
	if caller.OrganizationID != targetOrganizationID {
		return common.Forbidden("resource belongs to another organization")
	}
	allowed, ok := actionRoles[action]
	if !ok {
		return common.Forbidden("unknown action")
	}
	for _, role := range allowed {
		if caller.Role == role {
			return nil
		}
	}
	return common.Forbidden("role %s may not perform %s", caller.Role, action)
}

// CanInvite enforces the invitation hierarchy: owners invite managers
// and workers, managers invite workers and tenants.
func (s *authzService) CanInvite(inviter, invited models.Role) bool {
	if invited == models.RoleOwner {
		return false
	}
	if inviter == models.RoleOwner && invited == models.RoleTenant {
		// Product rule: tenant onboarding is a manager workflow, but
		// owners hold every manager capability.
		return true
	}
	return inviteRank[inviter] > inviteRank[invited]
}

// InviteAction maps an invited role to the capability gating it.
func (s *authzService) InviteAction(invited models.Role) Action {
	switch invited {
	case models.RoleManager:
		return ActionInviteManager
	case models.RoleTenant:
		return ActionInviteTenant
	default:
		return ActionInviteWorker
	}
}
