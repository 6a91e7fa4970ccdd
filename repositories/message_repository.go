package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListConversation(ctx context.Context, userID, peerID, limit int) ([]*models.Message, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.RecipientID, m.Content).
		Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *postgresMessageRepository) ListConversation(ctx context.Context, userID, peerID, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC, id ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, peerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation %d<->%d: %w", userID, peerID, err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		if scanErr := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", scanErr)
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
