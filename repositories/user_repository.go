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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	// GetOrCreateBot возвращает стабильного бот-пользователя по нику,
	// создавая его при первом обращении.
	GetOrCreateBot(ctx context.Context, exec SQLExecutor, nickname string) (*models.User, error)
	SetOnline(ctx context.Context, id int, online bool) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, nickname, is_bot, online, created_at FROM users WHERE id = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Nickname, &u.IsBot, &u.Online, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user by id %d: %w", id, err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetOrCreateBot(ctx context.Context, exec SQLExecutor, nickname string) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users (nickname, is_bot)
		VALUES ($1, TRUE)
		ON CONFLICT (nickname) DO UPDATE SET is_bot = TRUE
		RETURNING id, nickname, is_bot, online, created_at`

	u := &models.User{}
	err := executor.QueryRowContext(ctx, query, nickname).Scan(&u.ID, &u.Nickname, &u.IsBot, &u.Online, &u.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrUserNicknameConflict
		}
		return nil, fmt.Errorf("failed to get or create bot %q: %w", nickname, err)
	}
	return u, nil
}

func (r *postgresUserRepository) SetOnline(ctx context.Context, id int, online bool) error {
	query := `UPDATE users SET online = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, online, id)
	if err != nil {
		return fmt.Errorf("failed to update online flag for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
