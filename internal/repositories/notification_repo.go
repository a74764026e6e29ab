package repositories

import (
	"context"

	"fixflow/internal/models"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error
	Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error
	MarkResult(ctx context.Context, id uuid.UUID, status string, sendErr *string) error
	ListFailed(ctx context.Context, maxRetries, limit int) ([]*models.Notification, error)
	IncrementRetry(ctx context.Context, id uuid.UUID, status string, sendErr *string) error
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepo(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationColumns = `id, organization_id, user_id, event_type, channel, subject, body, status, error, request_id, retry_count, read_at, created_at`

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, organization_id, user_id, event_type, channel, subject, body, status, error, request_id, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.OrganizationID, n.UserID, n.EventType, n.Channel,
		n.Subject, n.Body, n.Status, n.Error, n.RequestID, n.RetryCount,
	)
	return err
}

func (r *notificationRepo) ListByUser(ctx context.Context, organizationID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE organization_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, organizationID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(
			&n.ID, &n.OrganizationID, &n.UserID, &n.EventType, &n.Channel,
			&n.Subject, &n.Body, &n.Status, &n.Error, &n.RequestID,
			&n.RetryCount, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = NOW()
		WHERE organization_id = $1 AND user_id = $2 AND id = $3 AND read_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, organizationID, userID, id)
	return err
}

func (r *notificationRepo) Delete(ctx context.Context, organizationID, userID, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE organization_id = $1 AND user_id = $2 AND id = $3`
	_, err := r.db.Exec(ctx, query, organizationID, userID, id)
	return err
}

func (r *notificationRepo) MarkResult(ctx context.Context, id uuid.UUID, status string, sendErr *string) error {
	query := `UPDATE notifications SET status = $1, error = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, status, sendErr, id)
	return err
}

func (r *notificationRepo) ListFailed(ctx context.Context, maxRetries, limit int) ([]*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = $1 AND retry_count < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, models.NotificationFailed, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(
			&n.ID, &n.OrganizationID, &n.UserID, &n.EventType, &n.Channel,
			&n.Subject, &n.Body, &n.Status, &n.Error, &n.RequestID,
			&n.RetryCount, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) IncrementRetry(ctx context.Context, id uuid.UUID, status string, sendErr *string) error {
	query := `UPDATE notifications SET retry_count = retry_count + 1, status = $1, error = $2 WHERE id = $3`
	_, err := r.db.Exec(ctx, query, status, sendErr, id)
	return err
}
