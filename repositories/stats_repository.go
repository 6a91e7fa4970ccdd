package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
)

var ErrStatsNotFound = errors.New("player stats not found")

type StatsRepository interface {
	Get(ctx context.Context, exec SQLExecutor, playerID int) (*models.PlayerStats, error)
	// Upsert создаёт запись при первой игре и перезаписывает счётчики дальше.
	Upsert(ctx context.Context, exec SQLExecutor, stats *models.PlayerStats) error
}

type postgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) StatsRepository {
	return &postgresStatsRepository{db: db}
}

func (r *postgresStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStatsRepository) Get(ctx context.Context, exec SQLExecutor, playerID int) (*models.PlayerStats, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT player_id, total_games, games_won, games_lost, perfect_games, win_ratio
		FROM player_stats WHERE player_id = $1`

	s := &models.PlayerStats{}
	err := executor.QueryRowContext(ctx, query, playerID).
		Scan(&s.PlayerID, &s.TotalGames, &s.GamesWon, &s.GamesLost, &s.PerfectGames, &s.WinRatio)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatsNotFound
		}
		return nil, fmt.Errorf("failed to scan stats for player %d: %w", playerID, err)
	}
	return s, nil
}

func (r *postgresStatsRepository) Upsert(ctx context.Context, exec SQLExecutor, s *models.PlayerStats) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_stats (player_id, total_games, games_won, games_lost, perfect_games, win_ratio)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id) DO UPDATE SET
			total_games = EXCLUDED.total_games,
			games_won = EXCLUDED.games_won,
			games_lost = EXCLUDED.games_lost,
			perfect_games = EXCLUDED.perfect_games,
			win_ratio = EXCLUDED.win_ratio`

	if _, err := executor.ExecContext(ctx, query,
		s.PlayerID, s.TotalGames, s.GamesWon, s.GamesLost, s.PerfectGames, s.WinRatio,
	); err != nil {
		return fmt.Errorf("failed to upsert stats for player %d: %w", s.PlayerID, err)
	}
	return nil
}
