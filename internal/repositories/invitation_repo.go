package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/jackc/pgx/v5"
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	MarkAccepted(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type invitationRepo struct {
	db DB
}

func NewInvitationRepo(db DB) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, organization_id, email, role, token, unit_id, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		invitation.ID, invitation.OrganizationID, invitation.Email, invitation.Role,
		invitation.Token, invitation.UnitID, invitation.InvitedBy, invitation.ExpiresAt,
	)
	return err
}

func (r *invitationRepo) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	query := `
		SELECT id, organization_id, email, role, token, unit_id, invited_by, expires_at, accepted_at, created_at
		FROM invitations
		WHERE token = $1
	`
	err := r.db.QueryRow(ctx, query, token).Scan(
		&inv.ID, &inv.OrganizationID, &inv.Email, &inv.Role, &inv.Token,
		&inv.UnitID, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

// MarkAccepted consumes the token. The conditional update on
// accepted_at IS NULL is the single serialization point that makes
// concurrent acceptance yield exactly one winner.
func (r *invitationRepo) MarkAccepted(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE invitations
		SET accepted_at = NOW()
		WHERE token = $1 AND accepted_at IS NULL AND expires_at > NOW()
	`
	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invitationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM invitations WHERE accepted_at IS NULL AND expires_at < NOW()`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
