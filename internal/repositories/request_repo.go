package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RequestRepository interface {
	Create(ctx context.Context, request *models.MaintenanceRequest) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.MaintenanceRequest, error)
	ListByOrg(ctx context.Context, organizationID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error)
	ListByTenant(ctx context.Context, organizationID, tenantID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error)
	UpdateFields(ctx context.Context, request *models.MaintenanceRequest) error
	UpdateStatus(ctx context.Context, request *models.MaintenanceRequest) error
	Assign(ctx context.Context, organizationID, id, assigneeID uuid.UUID, status models.RequestStatus) error
	AddAttachment(ctx context.Context, attachment *models.RequestAttachment) error
	ListAttachments(ctx context.Context, requestID uuid.UUID) ([]*models.RequestAttachment, error)
}

type requestRepo struct {
	db DB
}

func NewRequestRepo(db DB) RequestRepository {
	return &requestRepo{db: db}
}

const requestColumns = `id, organization_id, property_id, unit_id, tenant_id, assigned_to, title, description, category, priority, status, resolution_notes, completed_by, completed_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*models.MaintenanceRequest, error) {
	req := &models.MaintenanceRequest{}
	err := row.Scan(
		&req.ID, &req.OrganizationID, &req.PropertyID, &req.UnitID, &req.TenantID,
		&req.AssignedTo, &req.Title, &req.Description, &req.Category, &req.Priority,
		&req.Status, &req.ResolutionNotes, &req.CompletedBy, &req.CompletedAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepo) Create(ctx context.Context, request *models.MaintenanceRequest) error {
	query := `
		INSERT INTO maintenance_requests (id, organization_id, property_id, unit_id, tenant_id, assigned_to, title, description, category, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		request.ID, request.OrganizationID, request.PropertyID, request.UnitID,
		request.TenantID, request.AssignedTo, request.Title, request.Description,
		request.Category, request.Priority, request.Status,
	)
	return err
}

func (r *requestRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.MaintenanceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE organization_id = $1 AND id = $2`
	req, err := scanRequest(r.db.QueryRow(ctx, query, organizationID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepo) listRows(rows pgx.Rows) ([]*models.MaintenanceRequest, error) {
	defer rows.Close()
	var requests []*models.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *requestRepo) ListByOrg(ctx context.Context, organizationID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM maintenance_requests
		WHERE organization_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR priority = $3)
		  AND ($4::uuid IS NULL OR property_id = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query, organizationID,
		filter.Status, filter.Priority, filter.PropertyID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	return r.listRows(rows)
}

// ListByTenant keeps tenant_id in the WHERE clause unconditionally;
// filters narrow the visible set, never widen it.
func (r *requestRepo) ListByTenant(ctx context.Context, organizationID, tenantID uuid.UUID, filter models.RequestFilter) ([]*models.MaintenanceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM maintenance_requests
		WHERE organization_id = $1 AND tenant_id = $2
		  AND ($3::text IS NULL OR status = $3)
		  AND ($4::text IS NULL OR priority = $4)
		  AND ($5::uuid IS NULL OR property_id = $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`
	rows, err := r.db.Query(ctx, query, organizationID, tenantID,
		filter.Status, filter.Priority, filter.PropertyID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	return r.listRows(rows)
}

// UpdateFields persists only the caller-mutable fields. Identity and
// scoping columns never appear in the SET list.
func (r *requestRepo) UpdateFields(ctx context.Context, request *models.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests
		SET title = $1, description = $2, category = $3, priority = $4, updated_at = NOW()
		WHERE organization_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query,
		request.Title, request.Description, request.Category, request.Priority,
		request.OrganizationID, request.ID,
	)
	return err
}

func (r *requestRepo) UpdateStatus(ctx context.Context, request *models.MaintenanceRequest) error {
	query := `
		UPDATE maintenance_requests
		SET status = $1, resolution_notes = $2, completed_by = $3, completed_at = $4, updated_at = NOW()
		WHERE organization_id = $5 AND id = $6
	`
	_, err := r.db.Exec(ctx, query,
		request.Status, request.ResolutionNotes, request.CompletedBy, request.CompletedAt,
		request.OrganizationID, request.ID,
	)
	return err
}

func (r *requestRepo) Assign(ctx context.Context, organizationID, id, assigneeID uuid.UUID, status models.RequestStatus) error {
	query := `
		UPDATE maintenance_requests
		SET assigned_to = $1, status = $2, updated_at = NOW()
		WHERE organization_id = $3 AND id = $4
	`
	_, err := r.db.Exec(ctx, query, assigneeID, status, organizationID, id)
	return err
}

func (r *requestRepo) AddAttachment(ctx context.Context, attachment *models.RequestAttachment) error {
	query := `
		INSERT INTO request_attachments (id, request_id, object_key, public_url, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		attachment.ID, attachment.RequestID, attachment.ObjectKey,
		attachment.PublicURL, attachment.UploadedBy,
	)
	return err
}

func (r *requestRepo) ListAttachments(ctx context.Context, requestID uuid.UUID) ([]*models.RequestAttachment, error) {
	query := `
		SELECT id, request_id, object_key, public_url, uploaded_by, created_at
		FROM request_attachments
		WHERE request_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*models.RequestAttachment
	for rows.Next() {
		a := &models.RequestAttachment{}
		if err := rows.Scan(&a.ID, &a.RequestID, &a.ObjectKey, &a.PublicURL, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
