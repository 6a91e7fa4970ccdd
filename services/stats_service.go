package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
	"golang.org/x/sync/errgroup"
)

const recentGamesLimit = 5

// Пороговые достижения, выдаются идемпотентно.
var achievementThresholds = []struct {
	Name string
	Icon string
	Met  func(s *models.PlayerStats) bool
}{
	{"Perfectionist", "target", func(s *models.PlayerStats) bool { return s.PerfectGames >= 1 }},
	{"Regular", "gamepad", func(s *models.PlayerStats) bool { return s.TotalGames >= 10 }},
	{"Veteran", "crown", func(s *models.PlayerStats) bool { return s.TotalGames >= 50 }},
}

// RecordGameParams — нормализованный результат казуальной партии.
type RecordGameParams struct {
	PlayerID        int
	Opponent        string
	PlayerScore     int
	OpponentScore   int
	Mode            models.GameMode
	Difficulty      string
	DurationSeconds float64
}

// PlayerProfile — агрегат для страницы профиля.
type PlayerProfile struct {
	User         *models.User          `json:"user"`
	Stats        *models.PlayerStats   `json:"stats"`
	RecentGames  []*models.GameRecord  `json:"recent_games"`
	Achievements []*models.Achievement `json:"achievements"`
}

type StatsService interface {
	MatchRecorder
	RecordCasualGame(ctx context.Context, params RecordGameParams) (*models.GameRecord, error)
	// GetPlayerStats возвращает нулевую статистику, если игрок ещё не играл.
	GetPlayerStats(ctx context.Context, playerID int) (*models.PlayerStats, error)
	GetRecentGames(ctx context.Context, playerID int) ([]*models.GameRecord, error)
	GetProfile(ctx context.Context, playerID int) (*PlayerProfile, error)
}

type statsService struct {
	db           *sql.DB
	statsRepo    repositories.StatsRepository
	historyRepo  repositories.HistoryRepository
	achievements repositories.AchievementRepository
	userRepo     repositories.UserRepository
	logger       *slog.Logger
}

func NewStatsService(
	db *sql.DB,
	statsRepo repositories.StatsRepository,
	historyRepo repositories.HistoryRepository,
	achievements repositories.AchievementRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &statsService{
		db:           db,
		statsRepo:    statsRepo,
		historyRepo:  historyRepo,
		achievements: achievements,
		userRepo:     userRepo,
		logger:       logger,
	}
}

func (s *statsService) withTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if s.db == nil {
		return fn(nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *statsService) RecordCasualGame(ctx context.Context, params RecordGameParams) (*models.GameRecord, error) {
	if params.Mode == "" {
		params.Mode = models.ModeSolo
	}
	rec := &models.GameRecord{
		PlayerID:        params.PlayerID,
		Opponent:        params.Opponent,
		PlayerScore:     params.PlayerScore,
		OpponentScore:   params.OpponentScore,
		Mode:            params.Mode,
		Difficulty:      params.Difficulty,
		DurationSeconds: params.DurationSeconds,
	}

	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		perfect, err := s.applyResult(ctx, exec, params.PlayerID, params.PlayerScore, params.OpponentScore)
		if err != nil {
			return err
		}
		rec.IsPerfectGame = perfect
		return s.historyRepo.Create(ctx, exec, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecordTournamentMatch пишет в executor вызывающего: завершение матча
// и его статистика фиксируются одной транзакцией.
func (s *statsService) RecordTournamentMatch(ctx context.Context, exec repositories.SQLExecutor, m *models.TournamentMatch, t *models.Tournament) error {
	if m.Player2ID == nil {
		// Bye-матч не является сыгранной партией.
		return nil
	}
	p1, err := s.userRepo.GetByID(ctx, m.Player1ID)
	if err != nil {
		return err
	}
	p2, err := s.userRepo.GetByID(ctx, *m.Player2ID)
	if err != nil {
		return err
	}

	// Боты не получают ни статистики, ни истории.
	if !p1.IsBot {
		if err := s.recordTournamentSide(ctx, exec, p1.ID, p2.Nickname, m.Player1Score, m.Player2Score, t.Name, m.Round); err != nil {
			return err
		}
	}
	if !p2.IsBot {
		if err := s.recordTournamentSide(ctx, exec, p2.ID, p1.Nickname, m.Player2Score, m.Player1Score, t.Name, m.Round); err != nil {
			return err
		}
	}
	return nil
}

func (s *statsService) recordTournamentSide(ctx context.Context, exec repositories.SQLExecutor, playerID int, opponent string, playerScore, opponentScore int, tournamentName string, round int) error {
	perfect, err := s.applyResult(ctx, exec, playerID, playerScore, opponentScore)
	if err != nil {
		return err
	}
	return s.historyRepo.Create(ctx, exec, &models.GameRecord{
		PlayerID:        playerID,
		Opponent:        opponent,
		PlayerScore:     playerScore,
		OpponentScore:   opponentScore,
		Mode:            models.ModeTournament,
		IsPerfectGame:   perfect,
		TournamentName:  &tournamentName,
		TournamentRound: &round,
	})
}

// applyResult обновляет агрегат игрока по одной партии и проверяет
// пороги достижений. Возвращает признак идеальной игры.
func (s *statsService) applyResult(ctx context.Context, exec repositories.SQLExecutor, playerID, playerScore, opponentScore int) (bool, error) {
	stats, err := s.statsRepo.Get(ctx, exec, playerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrStatsNotFound) {
			return false, err
		}
		stats = &models.PlayerStats{PlayerID: playerID}
	}

	perfect := false
	stats.TotalGames++
	if playerScore > opponentScore {
		stats.GamesWon++
		if opponentScore == 0 {
			perfect = true
			stats.PerfectGames++
		}
	} else {
		stats.GamesLost++
	}
	stats.WinRatio = float64(stats.GamesWon) / float64(stats.TotalGames) * 100

	if err := s.statsRepo.Upsert(ctx, exec, stats); err != nil {
		return false, err
	}

	for _, a := range achievementThresholds {
		if a.Met(stats) {
			if err := s.achievements.Grant(ctx, exec, playerID, a.Name, a.Icon); err != nil {
				return false, err
			}
		}
	}
	return perfect, nil
}

func (s *statsService) GetPlayerStats(ctx context.Context, playerID int) (*models.PlayerStats, error) {
	stats, err := s.statsRepo.Get(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrStatsNotFound) {
			return &models.PlayerStats{PlayerID: playerID}, nil
		}
		return nil, err
	}
	return stats, nil
}

func (s *statsService) GetRecentGames(ctx context.Context, playerID int) ([]*models.GameRecord, error) {
	return s.historyRepo.ListRecent(ctx, playerID, recentGamesLimit)
}

func (s *statsService) GetProfile(ctx context.Context, playerID int) (*PlayerProfile, error) {
	profile := &PlayerProfile{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.userRepo.GetByID(gCtx, playerID)
		if err != nil {
			return err
		}
		profile.User = u
		return nil
	})
	g.Go(func() error {
		stats, err := s.GetPlayerStats(gCtx, playerID)
		if err != nil {
			return err
		}
		profile.Stats = stats
		return nil
	})
	g.Go(func() error {
		games, err := s.historyRepo.ListRecent(gCtx, playerID, recentGamesLimit)
		if err != nil {
			return err
		}
		profile.RecentGames = games
		return nil
	})
	g.Go(func() error {
		achievements, err := s.achievements.ListByUser(gCtx, playerID)
		if err != nil {
			return err
		}
		profile.Achievements = achievements
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}
