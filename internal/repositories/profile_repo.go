package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context, organizationID uuid.UUID, role *models.Role, limit, offset int) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	CountByRole(ctx context.Context, organizationID uuid.UUID, role models.Role) (int, error)
}

type profileRepo struct {
	db DB
}

func NewProfileRepo(db DB) ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `id, organization_id, role, full_name, email, phone, email_enabled, sms_enabled, created_at, updated_at`

func (r *profileRepo) scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.Role, &p.FullName, &p.Email,
		&p.Phone, &p.EmailEnabled, &p.SMSEnabled, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, organization_id, role, full_name, email, phone, email_enabled, sms_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		profile.ID, profile.OrganizationID, profile.Role, profile.FullName,
		profile.Email, profile.Phone, profile.EmailEnabled, profile.SMSEnabled,
	)
	return err
}

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

func (r *profileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1)`
	return r.scanProfile(r.db.QueryRow(ctx, query, email))
}

func (r *profileRepo) List(ctx context.Context, organizationID uuid.UUID, role *models.Role, limit, offset int) ([]*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE organization_id = $1 AND ($2::text IS NULL OR role = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, organizationID, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		if err := rows.Scan(
			&p.ID, &p.OrganizationID, &p.Role, &p.FullName, &p.Email,
			&p.Phone, &p.EmailEnabled, &p.SMSEnabled, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	// Role is immutable after creation, so it is not in the SET list.
	query := `
		UPDATE profiles
		SET full_name = $1, phone = $2, email_enabled = $3, sms_enabled = $4, updated_at = NOW()
		WHERE organization_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query,
		profile.FullName, profile.Phone, profile.EmailEnabled, profile.SMSEnabled,
		profile.OrganizationID, profile.ID,
	)
	return err
}

func (r *profileRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := `DELETE FROM profiles WHERE organization_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, organizationID, id)
	return err
}

func (r *profileRepo) CountByRole(ctx context.Context, organizationID uuid.UUID, role models.Role) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM profiles WHERE organization_id = $1 AND role = $2`
	err := r.db.QueryRow(ctx, query, organizationID, role).Scan(&count)
	return count, err
}
