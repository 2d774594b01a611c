package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fellowsabroad/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

const notificationColumns = `id, user_id, title, message, type, is_read, application_id, created_at`

func (s *NotificationStore) Create(ctx context.Context, n models.Notification) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type, application_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + notificationColumns

	var out models.Notification
	err := s.pool.QueryRow(ctx, query, n.UserID, n.Title, n.Message, n.Type, n.ApplicationID).Scan(
		&out.ID,
		&out.UserID,
		&out.Title,
		&out.Message,
		&out.Type,
		&out.IsRead,
		&out.ApplicationID,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &out, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.IsRead,
			&n.ApplicationID,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

func (s *NotificationStore) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE id = $1`

	var n models.Notification
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.IsRead,
		&n.ApplicationID,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id int64) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
