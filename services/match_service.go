package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
)

// MatchRecorder превращает завершённый турнирный матч в обновление
// статистики и записи истории. Реализуется StatsService. Executor
// передаётся, чтобы записи легли в транзакцию вызывающего.
type MatchRecorder interface {
	RecordTournamentMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.TournamentMatch, tournament *models.Tournament) error
}

// PlayInfo — параметры редиректа в игру для играбельного матча.
type PlayInfo struct {
	MatchID       int    `json:"match_id"`
	TournamentID  int    `json:"tournament_id"`
	Round         int    `json:"round"`
	IsHost        bool   `json:"is_host"`
	OpponentID    int    `json:"opponent_id"`
	OpponentAlias string `json:"opponent_alias"`
	OpponentIsBot bool   `json:"opponent_is_bot"`
}

type MatchService interface {
	// RecordResult фиксирует результат матча с участием человека.
	// Для матча человек-человек победитель пересчитывается по счёту;
	// при участии бота принимается заявленный победитель (счёт бота
	// синтезируется на клиенте, сервер его пересчитать не может).
	RecordResult(ctx context.Context, matchID, callerID, score1, score2 int, reportedWinnerID *int) (*models.TournamentMatch, error)
	GetPlayInfo(ctx context.Context, matchID, callerID int) (*PlayInfo, error)
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	recorder        MatchRecorder
	tournaments     TournamentService
	logger          *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	recorder MatchRecorder,
	tournaments TournamentService,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		recorder:        recorder,
		tournaments:     tournaments,
		logger:          logger,
	}
}

func (s *matchService) RecordResult(ctx context.Context, matchID, callerID, score1, score2 int, reportedWinnerID *int) (*models.TournamentMatch, error) {
	m, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if m.IsCompleted {
		return nil, ErrMatchAlreadyCompleted
	}
	if m.IsBye() {
		return nil, ErrByeMatchNotPlayable
	}
	if !m.HasPlayer(callerID) {
		return nil, ErrNotAParticipant
	}

	winnerID, err := s.determineWinner(ctx, m, score1, score2, reportedWinnerID)
	if err != nil {
		return nil, err
	}

	playedAt := time.Now()
	m.Player1Score = score1
	m.Player2Score = score2
	m.WinnerID = &winnerID
	m.IsCompleted = true
	m.PlayedAt = &playedAt

	// Завершение матча, запись статистики и продвижение раунда — одна
	// транзакция под мьютексом турнира: сбой любого шага откатывает всё,
	// и повторная отправка результата остаётся возможной.
	err = s.tournaments.ResolveMatch(ctx, m.TournamentID, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, m.TournamentID)
		if err != nil {
			return err
		}
		if err := s.recorder.RecordTournamentMatch(ctx, exec, m, t); err != nil {
			return fmt.Errorf("failed to record stats for match %d: %w", matchID, err)
		}
		// Одноразовый переход: условие is_completed = FALSE в запросе
		// отбрасывает повторную отправку того же матча.
		return s.matchRepo.Complete(ctx, exec, matchID, score1, score2, winnerID, playedAt)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match result recorded",
		slog.Int("match_id", matchID), slog.Int("winner_id", winnerID))
	return m, nil
}

func (s *matchService) determineWinner(ctx context.Context, m *models.TournamentMatch, score1, score2 int, reportedWinnerID *int) (int, error) {
	p1, err := s.userRepo.GetByID(ctx, m.Player1ID)
	if err != nil {
		return 0, err
	}
	p2, err := s.userRepo.GetByID(ctx, *m.Player2ID)
	if err != nil {
		return 0, err
	}

	if p1.IsBot || p2.IsBot {
		if reportedWinnerID == nil {
			return 0, ErrWinnerRequired
		}
		if !m.HasPlayer(*reportedWinnerID) {
			return 0, ErrWinnerNotInMatch
		}
		return *reportedWinnerID, nil
	}

	// Человек против человека: победитель всегда пересчитывается по счёту.
	switch {
	case score1 > score2:
		return m.Player1ID, nil
	case score2 > score1:
		return *m.Player2ID, nil
	default:
		return 0, ErrScoresEqual
	}
}

func (s *matchService) GetPlayInfo(ctx context.Context, matchID, callerID int) (*PlayInfo, error) {
	m, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}
	if m.IsBye() {
		return nil, ErrByeMatchNotPlayable
	}
	if !m.HasPlayer(callerID) {
		return nil, ErrNotAParticipant
	}

	opponentID := m.Player1ID
	if callerID == m.Player1ID {
		opponentID = *m.Player2ID
	}
	opponent, err := s.userRepo.GetByID(ctx, opponentID)
	if err != nil {
		return nil, err
	}
	alias := opponent.Nickname
	if p, err := s.participantRepo.GetByTournamentAndUser(ctx, m.TournamentID, opponentID); err == nil && p.Alias != "" {
		alias = p.Alias
	}

	return &PlayInfo{
		MatchID:       m.ID,
		TournamentID:  m.TournamentID,
		Round:         m.Round,
		IsHost:        callerID == m.Player1ID,
		OpponentID:    opponentID,
		OpponentAlias: alias,
		OpponentIsBot: opponent.IsBot,
	}, nil
}
