package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
)

type AchievementRepository interface {
	// Grant выдаёт достижение идемпотентно: повторная выдача — no-op.
	Grant(ctx context.Context, exec SQLExecutor, userID int, name, icon string) error
	ListByUser(ctx context.Context, userID int) ([]*models.Achievement, error)
}

type postgresAchievementRepository struct {
	db *sql.DB
}

func NewPostgresAchievementRepository(db *sql.DB) AchievementRepository {
	return &postgresAchievementRepository{db: db}
}

func (r *postgresAchievementRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAchievementRepository) Grant(ctx context.Context, exec SQLExecutor, userID int, name, icon string) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO user_achievements (user_id, name, icon)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, name) DO NOTHING`

	if _, err := executor.ExecContext(ctx, query, userID, name, icon); err != nil {
		return fmt.Errorf("failed to grant achievement %q to user %d: %w", name, userID, err)
	}
	return nil
}

func (r *postgresAchievementRepository) ListByUser(ctx context.Context, userID int) ([]*models.Achievement, error) {
	query := `SELECT name, icon, granted_at FROM user_achievements WHERE user_id = $1 ORDER BY granted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements for user %d: %w", userID, err)
	}
	defer rows.Close()

	achievements := make([]*models.Achievement, 0)
	for rows.Next() {
		a := &models.Achievement{}
		if scanErr := rows.Scan(&a.Name, &a.Icon, &a.GrantedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan achievement row: %w", scanErr)
		}
		achievements = append(achievements, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return achievements, nil
}
