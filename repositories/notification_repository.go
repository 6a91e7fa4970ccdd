package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, notification *models.Notification) error
	ListByUser(ctx context.Context, userID, limit int) ([]*models.Notification, error)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresNotificationRepository) Create(ctx context.Context, exec SQLExecutor, n *models.Notification) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO notifications (user_id, message, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, n.UserID, n.Message, n.Type).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification for user %d: %w", n.UserID, err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, message, type, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", scanErr)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}
