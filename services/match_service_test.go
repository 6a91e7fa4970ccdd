package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
)

type matchEnv struct {
	*tournamentEnv
	stats *statsEnv
	svc   MatchService
}

func newMatchEnv() *matchEnv {
	tEnv := newTournamentEnv()
	sEnv := &statsEnv{
		users:        tEnv.users,
		stats:        newFakeStatsRepo(),
		history:      &fakeHistoryRepo{},
		achievements: newFakeAchievementRepo(),
	}
	sEnv.svc = NewStatsService(nil, sEnv.stats, sEnv.history, sEnv.achievements, sEnv.users, nil)

	return &matchEnv{
		tournamentEnv: tEnv,
		stats:         sEnv,
		svc: NewMatchService(
			tEnv.matches,
			tEnv.tournaments,
			tEnv.participants,
			tEnv.users,
			sEnv.svc,
			tEnv.svc,
			nil,
		),
	}
}

// startHumanPair создаёт турнир на двоих людей и возвращает его
// единственный матч первого раунда.
func (env *matchEnv) startHumanPair(t *testing.T, creatorID, otherID int) (*models.Tournament, *models.TournamentMatch) {
	t.Helper()
	ctx := context.Background()

	tournament, err := env.tournamentEnv.svc.Create(ctx, creatorID, "duel", "host", 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.tournamentEnv.svc.Join(ctx, tournament.ID, otherID, "guest"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.tournamentEnv.svc.Start(ctx, tournament.ID, creatorID); err != nil {
		t.Fatalf("start: %v", err)
	}

	round := 1
	matches, err := env.matches.ListByTournament(ctx, nil, tournament.ID, &round)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("round 1 matches = %d, want 1", len(matches))
	}
	return tournament, matches[0]
}

func TestRecordResultRecomputesWinnerForHumans(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	bob := env.users.addHuman("bob")
	ctx := context.Background()

	tournament, match := env.startHumanPair(t, alice.ID, bob.ID)

	// Заявленный победитель противоречит счёту и должен быть проигнорирован.
	wrongWinner := match.Player1ID
	completed, err := env.svc.RecordResult(ctx, match.ID, match.Player1ID, 2, 3, &wrongWinner)
	if err != nil {
		t.Fatalf("record result: %v", err)
	}
	if completed.WinnerID == nil || *completed.WinnerID != *match.Player2ID {
		t.Fatal("winner was not recomputed from the scores")
	}

	// Единственный матч доигран: турнир завершён, статистика записана обоим.
	final, err := env.tournaments.GetByID(ctx, nil, tournament.ID)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	if !final.IsCompleted || final.WinnerID == nil {
		t.Fatal("tournament did not complete after the final match")
	}
	if *final.WinnerID != *completed.WinnerID {
		t.Fatal("tournament winner differs from the match winner")
	}
	for _, id := range []int{alice.ID, bob.ID} {
		if _, ok := env.stats.stats.stats[id]; !ok {
			t.Errorf("player %d has no recorded stats", id)
		}
	}
}

func TestRecordResultValidation(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	bob := env.users.addHuman("bob")
	mallory := env.users.addHuman("mallory")
	ctx := context.Background()

	_, match := env.startHumanPair(t, alice.ID, bob.ID)

	if _, err := env.svc.RecordResult(ctx, match.ID, mallory.ID, 3, 1, nil); !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("outsider: got %v, want ErrNotAParticipant", err)
	}
	if _, err := env.svc.RecordResult(ctx, match.ID, match.Player1ID, 2, 2, nil); !errors.Is(err, ErrScoresEqual) {
		t.Fatalf("equal scores: got %v, want ErrScoresEqual", err)
	}

	if _, err := env.svc.RecordResult(ctx, match.ID, match.Player1ID, 3, 1, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := env.svc.RecordResult(ctx, match.ID, match.Player1ID, 3, 1, nil); !errors.Is(err, ErrMatchAlreadyCompleted) {
		t.Fatalf("repeat: got %v, want ErrMatchAlreadyCompleted", err)
	}
}

func TestRecordResultAgainstBot(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	bob := env.users.addHuman("bob")
	ctx := context.Background()

	// Два человека на сетке из четырёх: свободные слоты добиваются ботами.
	fourPlayer, err := env.tournamentEnv.svc.Create(ctx, alice.ID, "vs bots", "ali", 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.tournamentEnv.svc.Join(ctx, fourPlayer.ID, bob.ID, "bobby"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := env.tournamentEnv.svc.Start(ctx, fourPlayer.ID, alice.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Находим матч человек-бот; при сетке 2+2 он есть не всегда, но если
	// есть, победитель обязан быть заявлен явно.
	round := 1
	matches, err := env.matches.ListByTournament(ctx, nil, fourPlayer.ID, &round)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var botMatch *models.TournamentMatch
	var human int
	for _, m := range matches {
		if m.IsCompleted {
			continue
		}
		p1, _ := env.users.GetByID(ctx, m.Player1ID)
		p2, _ := env.users.GetByID(ctx, *m.Player2ID)
		if p1.IsBot != p2.IsBot {
			botMatch = m
			human = m.Player1ID
			if p1.IsBot {
				human = *m.Player2ID
			}
			break
		}
	}
	if botMatch == nil {
		t.Skip("shuffle paired both humans together")
	}

	if _, err := env.svc.RecordResult(ctx, botMatch.ID, human, 3, 1, nil); !errors.Is(err, ErrWinnerRequired) {
		t.Fatalf("missing winner: got %v, want ErrWinnerRequired", err)
	}
	outsider := 9999
	if _, err := env.svc.RecordResult(ctx, botMatch.ID, human, 3, 1, &outsider); !errors.Is(err, ErrWinnerNotInMatch) {
		t.Fatalf("foreign winner: got %v, want ErrWinnerNotInMatch", err)
	}

	completed, err := env.svc.RecordResult(ctx, botMatch.ID, human, 1, 3, &human)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// Для матчей с ботом заявленный победитель принимается как есть.
	if completed.WinnerID == nil || *completed.WinnerID != human {
		t.Fatal("reported winner was not accepted for a bot match")
	}
}

// flakyRecorder отдаёт заданное число ошибок, затем делегирует
// настоящему рекордеру.
type flakyRecorder struct {
	inner    MatchRecorder
	failures int
}

func (f *flakyRecorder) RecordTournamentMatch(ctx context.Context, exec repositories.SQLExecutor, m *models.TournamentMatch, tournament *models.Tournament) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("stats store unavailable")
	}
	return f.inner.RecordTournamentMatch(ctx, exec, m, tournament)
}

func TestRecordResultRetriesAfterRecorderFailure(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	bob := env.users.addHuman("bob")
	ctx := context.Background()

	recorder := &flakyRecorder{inner: env.stats.svc, failures: 1}
	svc := NewMatchService(
		env.matches,
		env.tournaments,
		env.participants,
		env.users,
		recorder,
		env.tournamentEnv.svc,
		nil,
	)

	tournament, match := env.startHumanPair(t, alice.ID, bob.ID)

	if _, err := svc.RecordResult(ctx, match.ID, match.Player1ID, 3, 1, nil); err == nil {
		t.Fatal("expected an error while the recorder is failing")
	}

	// Сбой записи статистики не должен оставить матч завершённым,
	// иначе сетка застревает: повтор упирается в ErrMatchAlreadyCompleted,
	// а раунд никто больше не продвигает.
	stored, err := env.matches.GetByID(ctx, nil, match.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if stored.IsCompleted {
		t.Fatal("match was completed despite the failed stats recording")
	}

	completed, err := svc.RecordResult(ctx, match.ID, match.Player1ID, 3, 1, nil)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if completed.WinnerID == nil || *completed.WinnerID != match.Player1ID {
		t.Fatal("retry did not record the winner")
	}

	final, err := env.tournaments.GetByID(ctx, nil, tournament.ID)
	if err != nil {
		t.Fatalf("get tournament: %v", err)
	}
	if !final.IsCompleted || final.WinnerID == nil {
		t.Fatal("tournament did not advance after the successful retry")
	}
	for _, id := range []int{alice.ID, bob.ID} {
		if _, ok := env.stats.stats.stats[id]; !ok {
			t.Errorf("player %d has no recorded stats after the retry", id)
		}
	}
}

func TestGetPlayInfo(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	bob := env.users.addHuman("bob")
	mallory := env.users.addHuman("mallory")
	ctx := context.Background()

	_, match := env.startHumanPair(t, alice.ID, bob.ID)

	info, err := env.svc.GetPlayInfo(ctx, match.ID, match.Player1ID)
	if err != nil {
		t.Fatalf("play info: %v", err)
	}
	if !info.IsHost {
		t.Error("player1 must host the match")
	}
	if info.OpponentID != *match.Player2ID {
		t.Errorf("opponent id = %d, want %d", info.OpponentID, *match.Player2ID)
	}

	guestInfo, err := env.svc.GetPlayInfo(ctx, match.ID, *match.Player2ID)
	if err != nil {
		t.Fatalf("guest play info: %v", err)
	}
	if guestInfo.IsHost {
		t.Error("player2 must not host the match")
	}
	if guestInfo.OpponentAlias == "" {
		t.Error("opponent alias is empty")
	}

	if _, err := env.svc.GetPlayInfo(ctx, match.ID, mallory.ID); !errors.Is(err, ErrNotAParticipant) {
		t.Fatalf("outsider: got %v, want ErrNotAParticipant", err)
	}
}

func TestGetPlayInfoRejectsBye(t *testing.T) {
	env := newMatchEnv()
	alice := env.users.addHuman("alice")
	ctx := context.Background()

	bye := &models.TournamentMatch{
		TournamentID: 1,
		Player1ID:    alice.ID,
		Round:        1,
		IsCompleted:  true,
		WinnerID:     &alice.ID,
	}
	if err := env.matches.Create(ctx, nil, bye); err != nil {
		t.Fatalf("create bye: %v", err)
	}

	if _, err := env.svc.GetPlayInfo(ctx, bye.ID, alice.ID); !errors.Is(err, ErrByeMatchNotPlayable) {
		t.Fatalf("bye play info: got %v, want ErrByeMatchNotPlayable", err)
	}
	if _, err := env.svc.RecordResult(ctx, bye.ID, alice.ID, 3, 0, nil); !errors.Is(err, ErrMatchAlreadyCompleted) {
		t.Fatalf("bye result: got %v, want ErrMatchAlreadyCompleted", err)
	}
}
