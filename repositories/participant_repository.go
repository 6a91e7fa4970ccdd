package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrParticipantConflict   = errors.New("user is already registered for this tournament")
	ErrParticipantAliasTaken = errors.New("alias is already taken in this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id, alias, is_bot)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.UserID, p.Alias, p.IsBot).
		Scan(&p.ID, &p.JoinedAt)
	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, alias, is_bot, joined_at
		FROM tournament_participants
		WHERE tournament_id = $1 AND user_id = $2`

	p := &models.Participant{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).
		Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Alias, &p.IsBot, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, alias, is_bot, joined_at
		FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY joined_at ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if scanErr := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Alias, &p.IsBot, &p.JoinedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournament_participants WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "tournament_participants_tournament_id_user_id_key":
			return ErrParticipantConflict
		case "tournament_participants_tournament_id_alias_key":
			return ErrParticipantAliasTaken
		}
		return ErrParticipantConflict
	}
	return err
}
