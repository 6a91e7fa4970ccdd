package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type ListTournamentsFilter struct {
	OnlyActive    bool
	OnlyCompleted bool
	CreatorID     *int
	Limit         int
	Offset        int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id, winnerID int, endDate time.Time) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, creator_id, start_date, end_date, max_participants,
	is_active, is_completed, current_round, winner_id, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.CreatorID, &t.StartDate, &t.EndDate, &t.MaxParticipants,
		&t.IsActive, &t.IsCompleted, &t.CurrentRound, &t.WinnerID, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (name, creator_id, start_date, max_participants, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, current_round, is_completed`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.CreatorID, t.StartDate, t.MaxParticipants, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt, &t.CurrentRound, &t.IsCompleted)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	if err := scanTournament(executor.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.OnlyActive {
		query += " AND is_active = TRUE AND is_completed = FALSE"
	}
	if filter.OnlyCompleted {
		query += " AND is_completed = TRUE"
	}
	if filter.CreatorID != nil {
		query += fmt.Sprintf(" AND creator_id = $%d", argID)
		args = append(args, *filter.CreatorID)
		argID++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error {
	executor := r.getExecutor(exec)
	// current_round только растёт; защищаемся и на уровне запроса.
	query := `UPDATE tournaments SET current_round = $1 WHERE id = $2 AND current_round < $1`
	result, err := executor.ExecContext(ctx, query, round, id)
	if err != nil {
		return fmt.Errorf("failed to update current round for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id, winnerID int, endDate time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET is_completed = TRUE, is_active = FALSE, winner_id = $1, end_date = $2
		WHERE id = $3 AND is_completed = FALSE`
	result, err := executor.ExecContext(ctx, query, winnerID, endDate, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
