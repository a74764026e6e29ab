package repositories

import (
	"context"
	"errors"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PreferenceRepository interface {
	Create(ctx context.Context, pref *models.NotificationPreference) error
	Get(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	Update(ctx context.Context, pref *models.NotificationPreference) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type preferenceRepo struct {
	db DB
}

func NewPreferenceRepo(db DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) Create(ctx context.Context, pref *models.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (user_id, new_request, status_update, assignment, emergency, comment, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query,
		pref.UserID, pref.NewRequest, pref.StatusUpdate, pref.Assignment,
		pref.Emergency, pref.Comment,
	)
	return err
}

func (r *preferenceRepo) Get(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	pref := &models.NotificationPreference{}
	query := `
		SELECT user_id, new_request, status_update, assignment, emergency, comment, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&pref.UserID, &pref.NewRequest, &pref.StatusUpdate, &pref.Assignment,
		&pref.Emergency, &pref.Comment, &pref.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return pref, nil
}

func (r *preferenceRepo) Update(ctx context.Context, pref *models.NotificationPreference) error {
	query := `
		UPDATE notification_preferences
		SET new_request = $1, status_update = $2, assignment = $3, emergency = $4, comment = $5, updated_at = NOW()
		WHERE user_id = $6
	`
	_, err := r.db.Exec(ctx, query,
		pref.NewRequest, pref.StatusUpdate, pref.Assignment,
		pref.Emergency, pref.Comment, pref.UserID,
	)
	return err
}

func (r *preferenceRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM notification_preferences WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}
