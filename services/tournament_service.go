package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
)

// Счёт, фиксируемый победителю синтетического бот-матча.
// Проигравший бот получает равномерно случайный счёт строго ниже.
const botWinningScore = 3

type TournamentService interface {
	Create(ctx context.Context, creatorID int, name, creatorAlias string, maxParticipants int) (*models.Tournament, error)
	Join(ctx context.Context, tournamentID, userID int, alias string) error
	Leave(ctx context.Context, tournamentID, userID int) error
	Start(ctx context.Context, tournamentID, initiatorID int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	GetDetail(ctx context.Context, tournamentID int) (*models.Tournament, error)
	// CheckRoundCompletion идемпотентна и сериализована по турниру:
	// вызов на незавершённом раунде — no-op.
	CheckRoundCompletion(ctx context.Context, tournamentID int) error
	// ResolveMatch выполняет complete и продвижение раунда одной
	// транзакцией под мьютексом турнира: частичный сбой откатывает
	// завершение матча вместе с побочными записями.
	ResolveMatch(ctx context.Context, tournamentID int, complete func(exec repositories.SQLExecutor) error) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
	notifications   NotificationService
	logger          *slog.Logger

	// По одному мьютексу на турнир: продвижение раунда должно случиться
	// ровно один раз, даже если два матча завершились одновременно.
	locks sync.Map
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		logger:          logger,
	}
}

func (s *tournamentService) lockTournament(id int) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// withTx выполняет fn в транзакции; при nil db (юнит-тесты с фейковыми
// репозиториями) колбэк выполняется без транзакции.
func (s *tournamentService) withTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
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

func (s *tournamentService) Create(ctx context.Context, creatorID int, name, creatorAlias string, maxParticipants int) (*models.Tournament, error) {
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if creatorAlias == "" {
		return nil, ErrAliasRequired
	}
	if maxParticipants < 2 || maxParticipants%2 != 0 {
		return nil, ErrMaxParticipantsInvalid
	}

	t := &models.Tournament{
		Name:            name,
		CreatorID:       creatorID,
		StartDate:       time.Now(),
		MaxParticipants: maxParticipants,
		IsActive:        true,
	}
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, t); err != nil {
			return err
		}
		// Создатель автоматически становится первым участником.
		return s.participantRepo.Create(ctx, exec, &models.Participant{
			TournamentID: t.ID,
			UserID:       creatorID,
			Alias:        creatorAlias,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tournament created",
		slog.Int("tournament_id", t.ID), slog.Int("creator_id", creatorID))
	return t, nil
}

func (s *tournamentService) Join(ctx context.Context, tournamentID, userID int, alias string) error {
	if alias == "" {
		return ErrAliasRequired
	}

	unlock := s.lockTournament(tournamentID)
	defer unlock()

	return s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if !t.IsActive || t.IsCompleted {
			return ErrRegistrationClosed
		}

		started, err := s.matchRepo.ExistsByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if started {
			return ErrRegistrationClosed
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) >= t.MaxParticipants {
			return ErrRegistrationClosed
		}
		for _, p := range participants {
			if p.UserID == userID {
				return ErrAlreadyJoined
			}
			if p.Alias == alias {
				return ErrAliasTaken
			}
		}

		if err := s.participantRepo.Create(ctx, exec, &models.Participant{
			TournamentID: tournamentID,
			UserID:       userID,
			Alias:        alias,
		}); err != nil {
			return err
		}

		return s.notifications.Notify(ctx, exec, t.CreatorID,
			fmt.Sprintf("%s joined your tournament %q", alias, t.Name), "tournament")
	})
}

func (s *tournamentService) Leave(ctx context.Context, tournamentID, userID int) error {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	return s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.participantRepo.GetByTournamentAndUser(ctx, tournamentID, userID)
		if err != nil {
			return ErrNotAParticipant
		}

		started, err := s.matchRepo.ExistsByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if started {
			return ErrTournamentAlreadyStarted
		}

		return s.participantRepo.Delete(ctx, exec, p.ID)
	})
}

func (s *tournamentService) Start(ctx context.Context, tournamentID, initiatorID int) (*models.Tournament, error) {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	var result *models.Tournament
	err := s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if t.CreatorID != initiatorID {
			return ErrOnlyCreatorCanStart
		}
		if t.IsCompleted {
			return ErrTournamentCompleted
		}
		if !t.IsActive {
			return ErrTournamentNotActive
		}
		if t.CurrentRound > 0 {
			return ErrTournamentAlreadyStarted
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) < 2 {
			return ErrInsufficientParticipants
		}

		// Добиваем сетку ботами до вместимости. Идентичности ботов
		// стабильны и переиспользуются между турнирами.
		humanCount := len(participants)
		for i := humanCount; i < t.MaxParticipants; i++ {
			botNickname := fmt.Sprintf("bot-%d", i-humanCount+1)
			bot, err := s.userRepo.GetOrCreateBot(ctx, exec, botNickname)
			if err != nil {
				return err
			}
			p := &models.Participant{
				TournamentID: tournamentID,
				UserID:       bot.ID,
				Alias:        bot.Nickname,
				IsBot:        true,
			}
			if err := s.participantRepo.Create(ctx, exec, p); err != nil {
				return err
			}
			participants = append(participants, p)
		}

		if err := s.generateRound(ctx, exec, t, 1, participants); err != nil {
			return err
		}
		if err := s.tournamentRepo.UpdateCurrentRound(ctx, exec, tournamentID, 1); err != nil {
			return err
		}

		// Бот-матчи уже завершены: полностью ботовый турнир доигрывается
		// до чемпиона прямо в этом вызове.
		if err := s.checkRoundCompletionTx(ctx, exec, tournamentID, 0); err != nil {
			return err
		}

		result, err = s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournamentID), slog.Int("current_round", result.CurrentRound))
	return result, nil
}

// generateRound перемешивает участников, спаривает соседей и создаёт матчи
// раунда. Непарный участник получает bye: матч без второго игрока,
// завершённый сразу в его пользу.
func (s *tournamentService) generateRound(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, round int, participants []*models.Participant) error {
	shuffled := make([]*models.Participant, len(participants))
	copy(shuffled, participants)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i := 0; i+1 < len(shuffled); i += 2 {
		p1, p2 := shuffled[i], shuffled[i+1]
		p2ID := p2.UserID
		m := &models.TournamentMatch{
			TournamentID: t.ID,
			Player1ID:    p1.UserID,
			Player2ID:    &p2ID,
			Round:        round,
		}
		if p1.IsBot && p2.IsBot {
			s.resolveBotMatch(m)
		}
		if err := s.matchRepo.Create(ctx, exec, m); err != nil {
			return err
		}
	}

	if len(shuffled)%2 != 0 {
		bye := shuffled[len(shuffled)-1]
		if err := s.createByeMatch(ctx, exec, t.ID, round, bye.UserID); err != nil {
			return err
		}
	}
	return nil
}

// resolveBotMatch разыгрывает матч двух ботов: победитель равновероятен,
// его счёт фиксирован, счёт проигравшего строго ниже.
func (s *tournamentService) resolveBotMatch(m *models.TournamentMatch) {
	now := time.Now()
	loserScore := rand.Intn(botWinningScore)
	if rand.Intn(2) == 0 {
		m.Player1Score = botWinningScore
		m.Player2Score = loserScore
		m.WinnerID = &m.Player1ID
	} else {
		m.Player1Score = loserScore
		m.Player2Score = botWinningScore
		m.WinnerID = m.Player2ID
	}
	m.IsCompleted = true
	m.PlayedAt = &now
}

func (s *tournamentService) createByeMatch(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round, userID int) error {
	now := time.Now()
	m := &models.TournamentMatch{
		TournamentID: tournamentID,
		Player1ID:    userID,
		Round:        round,
		IsCompleted:  true,
		WinnerID:     &userID,
		PlayedAt:     &now,
	}
	return s.matchRepo.Create(ctx, exec, m)
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) GetDetail(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, nil)
	if err != nil {
		return nil, err
	}
	t.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		t.Participants = append(t.Participants, *p)
	}
	t.Matches = make([]models.TournamentMatch, 0, len(matches))
	for _, m := range matches {
		t.Matches = append(t.Matches, *m)
	}
	return t, nil
}

func (s *tournamentService) CheckRoundCompletion(ctx context.Context, tournamentID int) error {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	return s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.checkRoundCompletionTx(ctx, exec, tournamentID, 0)
	})
}

func (s *tournamentService) ResolveMatch(ctx context.Context, tournamentID int, complete func(exec repositories.SQLExecutor) error) error {
	unlock := s.lockTournament(tournamentID)
	defer unlock()

	return s.withTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := complete(exec); err != nil {
			return err
		}
		return s.checkRoundCompletionTx(ctx, exec, tournamentID, 0)
	})
}

// checkRoundCompletionTx продвигает турнир, если текущий раунд доигран.
// prevWinners ограничивает рекурсию: число победителей обязано строго
// уменьшаться на каждом шаге.
func (s *tournamentService) checkRoundCompletionTx(ctx context.Context, exec repositories.SQLExecutor, tournamentID, prevWinners int) error {
	t, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
	if err != nil {
		return err
	}
	if t.IsCompleted || t.CurrentRound == 0 {
		return nil
	}

	round := t.CurrentRound
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, &round)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	for _, m := range matches {
		if !m.IsCompleted {
			return nil
		}
	}

	winnerIDs := make([]int, 0, len(matches))
	for _, m := range matches {
		if m.WinnerID != nil {
			winnerIDs = append(winnerIDs, *m.WinnerID)
		}
	}
	if prevWinners > 0 && len(winnerIDs) >= prevWinners {
		return fmt.Errorf("%w: tournament %d round %d", ErrRoundNotAdvancing, tournamentID, round)
	}

	if len(winnerIDs) == 1 {
		winnerID := winnerIDs[0]
		if err := s.tournamentRepo.MarkCompleted(ctx, exec, tournamentID, winnerID, time.Now()); err != nil {
			return err
		}
		s.logger.Info("tournament completed",
			slog.Int("tournament_id", tournamentID), slog.Int("winner_id", winnerID))
		return s.notifications.Notify(ctx, exec, winnerID,
			fmt.Sprintf("You won the tournament %q!", t.Name), "tournament")
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return err
	}
	byUser := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = p
	}
	advancing := make([]*models.Participant, 0, len(winnerIDs))
	for _, id := range winnerIDs {
		p, ok := byUser[id]
		if !ok {
			return fmt.Errorf("winner %d is not a participant of tournament %d", id, tournamentID)
		}
		advancing = append(advancing, p)
	}

	nextRound := round + 1
	if err := s.generateRound(ctx, exec, t, nextRound, advancing); err != nil {
		return err
	}
	if err := s.tournamentRepo.UpdateCurrentRound(ctx, exec, tournamentID, nextRound); err != nil {
		return err
	}
	s.logger.Info("round advanced",
		slog.Int("tournament_id", tournamentID), slog.Int("round", nextRound))

	// Новый раунд мог состоять из одних ботов — проверяем его сразу.
	return s.checkRoundCompletionTx(ctx, exec, tournamentID, len(winnerIDs))
}
