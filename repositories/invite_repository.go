package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
)

var ErrInviteNotFound = errors.New("game invite not found")

type InviteRepository interface {
	Create(ctx context.Context, invite *models.GameInvite) error
	// GetLatestPending возвращает самое свежее pending-приглашение от sender к recipient.
	GetLatestPending(ctx context.Context, senderID, recipientID int) (*models.GameInvite, error)
	UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error
	// ExpireOlderThan помечает протухшие pending-приглашения. Возвращает их число.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Create(ctx context.Context, inv *models.GameInvite) error {
	query := `
		INSERT INTO game_invites (sender_id, recipient_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if inv.Status == "" {
		inv.Status = models.InvitePending
	}
	err := r.db.QueryRowContext(ctx, query, inv.SenderID, inv.RecipientID, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game invite: %w", err)
	}
	return nil
}

func (r *postgresInviteRepository) GetLatestPending(ctx context.Context, senderID, recipientID int) (*models.GameInvite, error) {
	query := `
		SELECT id, sender_id, recipient_id, status, created_at
		FROM game_invites
		WHERE sender_id = $1 AND recipient_id = $2 AND status = $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	inv := &models.GameInvite{}
	err := r.db.QueryRowContext(ctx, query, senderID, recipientID, models.InvitePending).
		Scan(&inv.ID, &inv.SenderID, &inv.RecipientID, &inv.Status, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to scan game invite: %w", err)
	}
	return inv, nil
}

func (r *postgresInviteRepository) UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error {
	query := `UPDATE game_invites SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update game invite %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE game_invites SET status = $1 WHERE status = $2 AND created_at < $3`
	result, err := r.db.ExecContext(ctx, query, models.InviteExpired, models.InvitePending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire game invites: %w", err)
	}
	return result.RowsAffected()
}
