package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
)

type HistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.GameRecord) error
	ListRecent(ctx context.Context, playerID, limit int) ([]*models.GameRecord, error)
}

type postgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresHistoryRepository) Create(ctx context.Context, exec SQLExecutor, rec *models.GameRecord) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO game_history
			(player_id, opponent, player_score, opponent_score, mode, difficulty,
			 duration_seconds, is_perfect_game, tournament_name, tournament_round)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, played_at`

	err := executor.QueryRowContext(ctx, query,
		rec.PlayerID, rec.Opponent, rec.PlayerScore, rec.OpponentScore, rec.Mode, rec.Difficulty,
		rec.DurationSeconds, rec.IsPerfectGame, rec.TournamentName, rec.TournamentRound,
	).Scan(&rec.ID, &rec.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game record for player %d: %w", rec.PlayerID, err)
	}
	return nil
}

func (r *postgresHistoryRepository) ListRecent(ctx context.Context, playerID, limit int) ([]*models.GameRecord, error) {
	query := `
		SELECT id, player_id, opponent, player_score, opponent_score, mode, difficulty,
		       duration_seconds, is_perfect_game, tournament_name, tournament_round, played_at
		FROM game_history
		WHERE player_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	records := make([]*models.GameRecord, 0)
	for rows.Next() {
		rec := &models.GameRecord{}
		if scanErr := rows.Scan(
			&rec.ID, &rec.PlayerID, &rec.Opponent, &rec.PlayerScore, &rec.OpponentScore,
			&rec.Mode, &rec.Difficulty, &rec.DurationSeconds, &rec.IsPerfectGame,
			&rec.TournamentName, &rec.TournamentRound, &rec.PlayedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan game record row: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
