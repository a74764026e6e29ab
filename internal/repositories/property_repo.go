package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	Count(ctx context.Context, organizationID uuid.UUID) (int, error)
}

type propertyRepo struct {
	db DB
}

func NewPropertyRepo(db DB) PropertyRepository {
	return &propertyRepo{db: db}
}

const propertyColumns = `id, organization_id, name, address_line1, address_line2, city, state, postal_code, manager_id, created_at, updated_at`

func (r *propertyRepo) Create(ctx context.Context, property *models.Property) error {
	query := `
		INSERT INTO properties (id, organization_id, name, address_line1, address_line2, city, state, postal_code, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		property.ID, property.OrganizationID, property.Name,
		property.AddressLine1, property.AddressLine2, property.City,
		property.State, property.PostalCode, property.ManagerID,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Property, error) {
	p := &models.Property{}
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE organization_id = $1 AND id = $2`
	err := r.db.QueryRow(ctx, query, organizationID, id).Scan(
		&p.ID, &p.OrganizationID, &p.Name, &p.AddressLine1, &p.AddressLine2,
		&p.City, &p.State, &p.PostalCode, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *propertyRepo) List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		p := &models.Property{}
		if err := rows.Scan(
			&p.ID, &p.OrganizationID, &p.Name, &p.AddressLine1, &p.AddressLine2,
			&p.City, &p.State, &p.PostalCode, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

func (r *propertyRepo) Update(ctx context.Context, property *models.Property) error {
	query := `
		UPDATE properties
		SET name = $1, address_line1 = $2, address_line2 = $3, city = $4, state = $5, postal_code = $6, manager_id = $7, updated_at = NOW()
		WHERE organization_id = $8 AND id = $9
	`
	_, err := r.db.Exec(ctx, query,
		property.Name, property.AddressLine1, property.AddressLine2,
		property.City, property.State, property.PostalCode, property.ManagerID,
		property.OrganizationID, property.ID,
	)
	return err
}

func (r *propertyRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := `DELETE FROM properties WHERE organization_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, organizationID, id)
	return err
}

func (r *propertyRepo) Count(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM properties WHERE organization_id = $1`
	err := r.db.QueryRow(ctx, query, organizationID).Scan(&count)
	return count, err
}
