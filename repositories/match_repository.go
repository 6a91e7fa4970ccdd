package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
)

var (
	ErrMatchNotFound         = errors.New("tournament match not found")
	ErrMatchAlreadyCompleted = errors.New("tournament match is already completed")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.TournamentMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentMatch, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int) ([]*models.TournamentMatch, error)
	// Complete переводит матч в завершённое состояние. Уже завершённый матч
	// не трогается: условие в запросе делает переход одноразовым.
	Complete(ctx context.Context, exec SQLExecutor, id, score1, score2, winnerID int, playedAt time.Time) error
	ExistsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, player1_id, player2_id, player1_score, player2_score,
	round, is_completed, winner_id, created_at, played_at`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.TournamentMatch) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Player1ID, &m.Player2ID, &m.Player1Score, &m.Player2Score,
		&m.Round, &m.IsCompleted, &m.WinnerID, &m.CreatedAt, &m.PlayedAt,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.TournamentMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_matches
			(tournament_id, player1_id, player2_id, player1_score, player2_score,
			 round, is_completed, winner_id, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Player1ID, m.Player2ID, m.Player1Score, m.Player2Score,
		m.Round, m.IsCompleted, m.WinnerID, m.PlayedAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tournament match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE id = $1`

	m := &models.TournamentMatch{}
	if err := scanMatch(executor.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int) ([]*models.TournamentMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM tournament_matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}

	if round != nil {
		query += " AND round = $2"
		args = append(args, *round)
	}
	query += " ORDER BY round ASC, id ASC"

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.TournamentMatch, 0)
	for rows.Next() {
		m := &models.TournamentMatch{}
		if scanErr := scanMatch(rows, m); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id, score1, score2, winnerID int, playedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournament_matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, is_completed = TRUE, played_at = $4
		WHERE id = $5 AND is_completed = FALSE`

	result, err := executor.ExecContext(ctx, query, score1, score2, winnerID, playedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete tournament match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyCompleted)
}

func (r *postgresMatchRepository) ExistsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS(SELECT 1 FROM tournament_matches WHERE tournament_id = $1)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, tournamentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check matches for tournament %d: %w", tournamentID, err)
	}
	return exists, nil
}
