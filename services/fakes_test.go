package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
)

// Инмемори-фейки репозиториев. Сервисы создаются с nil *sql.DB, поэтому
// exec везде приходит nil и игнорируется.

type fakeUserRepo struct {
	users  map[int]*models.User
	byNick map[string]int
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}, byNick: map[string]int{}}
}

func (r *fakeUserRepo) addHuman(nickname string) *models.User {
	r.nextID++
	u := &models.User{ID: r.nextID, Nickname: nickname}
	r.users[u.ID] = u
	r.byNick[nickname] = u.ID
	return u
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetOrCreateBot(ctx context.Context, exec repositories.SQLExecutor, nickname string) (*models.User, error) {
	if id, ok := r.byNick[nickname]; ok {
		return r.users[id], nil
	}
	r.nextID++
	u := &models.User{ID: r.nextID, Nickname: nickname, IsBot: true}
	r.users[u.ID] = u
	r.byNick[nickname] = u.ID
	return u, nil
}

func (r *fakeUserRepo) SetOnline(ctx context.Context, id int, online bool) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Online = online
	return nil
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: map[int]*models.Tournament{}}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	for _, t := range r.tournaments {
		if filter.OnlyActive && (!t.IsActive || t.IsCompleted) {
			continue
		}
		if filter.OnlyCompleted && !t.IsCompleted {
			continue
		}
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateCurrentRound(ctx context.Context, exec repositories.SQLExecutor, id, round int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	// Раунд только растёт, как и в SQL-условии.
	if t.CurrentRound >= round {
		return fmt.Errorf("current round %d is not below %d", t.CurrentRound, round)
	}
	t.CurrentRound = round
	return nil
}

func (r *fakeTournamentRepo) MarkCompleted(ctx context.Context, exec repositories.SQLExecutor, id, winnerID int, endDate time.Time) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.IsCompleted {
		return fmt.Errorf("tournament %d is already completed", id)
	}
	t.IsCompleted = true
	t.IsActive = false
	t.WinnerID = &winnerID
	t.EndDate = &endDate
	return nil
}

type fakeParticipantRepo struct {
	participants map[int]*models.Participant
	nextID       int
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: map[int]*models.Participant{}}
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	for _, existing := range r.participants {
		if existing.TournamentID != p.TournamentID {
			continue
		}
		if existing.UserID == p.UserID {
			return repositories.ErrParticipantConflict
		}
		if existing.Alias == p.Alias {
			return repositories.ErrParticipantAliasTaken
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.JoinedAt = time.Now()
	stored := *p
	r.participants[p.ID] = &stored
	return nil
}

func (r *fakeParticipantRepo) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	for _, p := range r.participants {
		if p.TournamentID == tournamentID && p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	for i := 1; i <= r.nextID; i++ {
		p, ok := r.participants[i]
		if ok && p.TournamentID == tournamentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	if _, ok := r.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants, id)
	return nil
}

type fakeMatchRepo struct {
	matches map[int]*models.TournamentMatch
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[int]*models.TournamentMatch{}}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.TournamentMatch) error {
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.TournamentMatch, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, round *int) ([]*models.TournamentMatch, error) {
	out := make([]*models.TournamentMatch, 0)
	for i := 1; i <= r.nextID; i++ {
		m, ok := r.matches[i]
		if !ok || m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeMatchRepo) Complete(ctx context.Context, exec repositories.SQLExecutor, id, score1, score2, winnerID int, playedAt time.Time) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.IsCompleted {
		return repositories.ErrMatchAlreadyCompleted
	}
	m.Player1Score = score1
	m.Player2Score = score2
	m.WinnerID = &winnerID
	m.IsCompleted = true
	m.PlayedAt = &playedAt
	return nil
}

func (r *fakeMatchRepo) ExistsByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	for _, m := range r.matches {
		if m.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

type fakeStatsRepo struct {
	stats map[int]*models.PlayerStats
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{stats: map[int]*models.PlayerStats{}}
}

func (r *fakeStatsRepo) Get(ctx context.Context, exec repositories.SQLExecutor, playerID int) (*models.PlayerStats, error) {
	s, ok := r.stats[playerID]
	if !ok {
		return nil, repositories.ErrStatsNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeStatsRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, s *models.PlayerStats) error {
	stored := *s
	r.stats[s.PlayerID] = &stored
	return nil
}

type fakeHistoryRepo struct {
	records []*models.GameRecord
}

func (r *fakeHistoryRepo) Create(ctx context.Context, exec repositories.SQLExecutor, rec *models.GameRecord) error {
	rec.ID = len(r.records) + 1
	rec.PlayedAt = time.Now()
	stored := *rec
	r.records = append(r.records, &stored)
	return nil
}

func (r *fakeHistoryRepo) ListRecent(ctx context.Context, playerID, limit int) ([]*models.GameRecord, error) {
	out := make([]*models.GameRecord, 0)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].PlayerID == playerID {
			copied := *r.records[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeAchievementRepo struct {
	granted map[int]map[string]string
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{granted: map[int]map[string]string{}}
}

func (r *fakeAchievementRepo) Grant(ctx context.Context, exec repositories.SQLExecutor, userID int, name, icon string) error {
	if _, ok := r.granted[userID]; !ok {
		r.granted[userID] = map[string]string{}
	}
	r.granted[userID][name] = icon
	return nil
}

func (r *fakeAchievementRepo) ListByUser(ctx context.Context, userID int) ([]*models.Achievement, error) {
	out := make([]*models.Achievement, 0)
	for name, icon := range r.granted[userID] {
		out = append(out, &models.Achievement{Name: name, Icon: icon})
	}
	return out, nil
}

// fakeNotifications считает уведомления, не доставляя их.
type fakeNotifications struct {
	sent map[int][]string
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{sent: map[int][]string{}}
}

func (n *fakeNotifications) Notify(ctx context.Context, exec repositories.SQLExecutor, userID int, message, category string) error {
	n.sent[userID] = append(n.sent[userID], message)
	return nil
}

func (n *fakeNotifications) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	out := make([]*models.Notification, 0, len(n.sent[userID]))
	for _, msg := range n.sent[userID] {
		out = append(out, &models.Notification{UserID: userID, Message: msg})
	}
	return out, nil
}
