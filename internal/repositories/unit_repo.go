package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UnitWithOrg is a unit joined with its property's organization, used
// when a request must resolve property and organization from a unit id.
type UnitWithOrg struct {
	Unit           models.Unit
	OrganizationID uuid.UUID
}

type UnitRepository interface {
	Create(ctx context.Context, unit *models.Unit) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Unit, error)
	GetWithOrg(ctx context.Context, id uuid.UUID) (*UnitWithOrg, error)
	ListByProperty(ctx context.Context, organizationID, propertyID uuid.UUID, limit, offset int) ([]*models.Unit, error)
	AssignTenant(ctx context.Context, unitID, tenantID uuid.UUID) (bool, error)
	UnassignTenant(ctx context.Context, organizationID, unitID uuid.UUID) error
	Count(ctx context.Context, organizationID uuid.UUID) (int, error)
}

type unitRepo struct {
	db DB
}

func NewUnitRepo(db DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) Create(ctx context.Context, unit *models.Unit) error {
	query := `
		INSERT INTO units (id, property_id, unit_number, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, unit.ID, unit.PropertyID, unit.UnitNumber, unit.TenantID)
	return err
}

func (r *unitRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Unit, error) {
	u := &models.Unit{}
	query := `
		SELECT u.id, u.property_id, u.unit_number, u.tenant_id, u.created_at, u.updated_at
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE p.organization_id = $1 AND u.id = $2
	`
	err := r.db.QueryRow(ctx, query, organizationID, id).Scan(
		&u.ID, &u.PropertyID, &u.UnitNumber, &u.TenantID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *unitRepo) GetWithOrg(ctx context.Context, id uuid.UUID) (*UnitWithOrg, error) {
	out := &UnitWithOrg{}
	query := `
		SELECT u.id, u.property_id, u.unit_number, u.tenant_id, u.created_at, u.updated_at, p.organization_id
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE u.id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&out.Unit.ID, &out.Unit.PropertyID, &out.Unit.UnitNumber, &out.Unit.TenantID,
		&out.Unit.CreatedAt, &out.Unit.UpdatedAt, &out.OrganizationID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (r *unitRepo) ListByProperty(ctx context.Context, organizationID, propertyID uuid.UUID, limit, offset int) ([]*models.Unit, error) {
	query := `
		SELECT u.id, u.property_id, u.unit_number, u.tenant_id, u.created_at, u.updated_at
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE p.organization_id = $1 AND u.property_id = $2
		ORDER BY u.unit_number
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, organizationID, propertyID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*models.Unit
	for rows.Next() {
		u := &models.Unit{}
		if err := rows.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.TenantID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// AssignTenant sets the unit's tenant only when the unit is vacant or
// already held by the same tenant. Returns false when another tenant
// holds the unit; the conditional update is what makes concurrent
// assignment safe.
func (r *unitRepo) AssignTenant(ctx context.Context, unitID, tenantID uuid.UUID) (bool, error) {
	query := `
		UPDATE units
		SET tenant_id = $1, updated_at = NOW()
		WHERE id = $2 AND (tenant_id IS NULL OR tenant_id = $1)
	`
	tag, err := r.db.Exec(ctx, query, tenantID, unitID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *unitRepo) UnassignTenant(ctx context.Context, organizationID, unitID uuid.UUID) error {
	query := `
		UPDATE units u
		SET tenant_id = NULL, updated_at = NOW()
		FROM properties p
		WHERE p.id = u.property_id AND p.organization_id = $1 AND u.id = $2
	`
	_, err := r.db.Exec(ctx, query, organizationID, unitID)
	return err
}

func (r *unitRepo) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM units u
		JOIN properties p ON p.id = u.property_id
		WHERE p.organization_id = $1
	`
	err := r.db.QueryRow(ctx, query, organizationID).Scan(&count)
	return count, err
}
