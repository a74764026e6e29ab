package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetByCode(ctx context.Context, code string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	UpdateSubscription(ctx context.Context, id uuid.UUID, planID, status string) error
}

type organizationRepo struct {
	db DB
}

func NewOrganizationRepo(db DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

const organizationColumns = `id, name, slug, code, plan_id, subscription_status, trial_ends_at, created_at, updated_at`

func (r *organizationRepo) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, code, plan_id, subscription_status, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, org.ID, org.Name, org.Slug, org.Code, org.PlanID, org.SubscriptionStatus, org.TrialEndsAt)
	return err
}

func (r *organizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Slug, &org.Code, &org.PlanID,
		&org.SubscriptionStatus, &org.TrialEndsAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *organizationRepo) GetByCode(ctx context.Context, code string) (*models.Organization, error) {
	org := &models.Organization{}
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE code = $1`
	err := r.db.QueryRow(ctx, query, code).Scan(
		&org.ID, &org.Name, &org.Slug, &org.Code, &org.PlanID,
		&org.SubscriptionStatus, &org.TrialEndsAt, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *organizationRepo) Update(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, org.Name, org.Slug, org.ID)
	return err
}

func (r *organizationRepo) UpdateSubscription(ctx context.Context, id uuid.UUID, planID, status string) error {
	query := `
		UPDATE organizations
		SET plan_id = $1, subscription_status = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, planID, status, id)
	return err
}
