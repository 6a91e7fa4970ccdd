package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
)

type fakeMessageRepo struct {
	messages []*models.Message
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *models.Message) error {
	m.ID = len(r.messages) + 1
	m.CreatedAt = time.Now()
	stored := *m
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeMessageRepo) ListConversation(ctx context.Context, userID, peerID, limit int) ([]*models.Message, error) {
	out := make([]*models.Message, 0)
	for _, m := range r.messages {
		if (m.SenderID == userID && m.RecipientID == peerID) || (m.SenderID == peerID && m.RecipientID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeInviteRepo struct {
	invites map[int]*models.GameInvite
	nextID  int
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: map[int]*models.GameInvite{}}
}

func (r *fakeInviteRepo) Create(ctx context.Context, invite *models.GameInvite) error {
	r.nextID++
	invite.ID = r.nextID
	invite.Status = models.InvitePending
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now()
	}
	stored := *invite
	r.invites[invite.ID] = &stored
	return nil
}

func (r *fakeInviteRepo) GetLatestPending(ctx context.Context, senderID, recipientID int) (*models.GameInvite, error) {
	var latest *models.GameInvite
	for _, inv := range r.invites {
		if inv.SenderID != senderID || inv.RecipientID != recipientID || inv.Status != models.InvitePending {
			continue
		}
		if latest == nil || inv.ID > latest.ID {
			latest = inv
		}
	}
	if latest == nil {
		return nil, repositories.ErrInviteNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeInviteRepo) UpdateStatus(ctx context.Context, id int, status models.InviteStatus) error {
	inv, ok := r.invites[id]
	if !ok {
		return repositories.ErrInviteNotFound
	}
	inv.Status = status
	return nil
}

func (r *fakeInviteRepo) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, inv := range r.invites {
		if inv.Status == models.InvitePending && inv.CreatedAt.Before(cutoff) {
			inv.Status = models.InviteExpired
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetOrCreateBot(ctx context.Context, exec repositories.SQLExecutor, nickname string) (*models.User, error) {
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) SetOnline(ctx context.Context, id int, online bool) error {
	return nil
}

type hubEnv struct {
	hub      *Hub
	messages *fakeMessageRepo
	invites  *fakeInviteRepo
	users    *fakeUserRepo
}

func newHubEnv() *hubEnv {
	env := &hubEnv{
		messages: &fakeMessageRepo{},
		invites:  newFakeInviteRepo(),
		users:    &fakeUserRepo{users: map[int]*models.User{}},
	}
	env.hub = NewHub(HubDeps{
		Messages: env.messages,
		Invites:  env.invites,
		Users:    env.users,
	})
	return env
}

// connect создаёт клиента и регистрирует его в обход цикла Run:
// тестам не нужна горутина хаба, только его состояние.
func (env *hubEnv) connect(userID int, nickname string) *Client {
	env.users.users[userID] = &models.User{ID: userID, Nickname: nickname}
	c := NewClient(env.hub, nil, userID, nickname)
	env.hub.mu.Lock()
	if _, ok := env.hub.sessions[userID]; !ok {
		env.hub.sessions[userID] = make(map[*Client]bool)
	}
	env.hub.sessions[userID][c] = true
	env.hub.mu.Unlock()
	return c
}

// drain выгребает все события из исходящего буфера клиента.
func drain(t *testing.T, c *Client) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for {
		select {
		case data := <-c.send:
			var event map[string]interface{}
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("malformed outbound event: %v", err)
			}
			out = append(out, event)
		default:
			return out
		}
	}
}

func eventsOfKind(events []map[string]interface{}, kind MessageKind) []map[string]interface{} {
	var out []map[string]interface{}
	for _, e := range events {
		if e["type"] == string(kind) {
			out = append(out, e)
		}
	}
	return out
}

func TestChatMessageDeliveryAndEcho(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	ctx := context.Background()

	env.hub.handleInbound(ctx, alice, []byte(`{"type":"chat_message","recipient_id":2,"message":"hi"}`))

	bobEvents := drain(t, bob)
	if len(bobEvents) != 1 || bobEvents[0]["type"] != "chat_message" {
		t.Fatalf("bob events: %+v", bobEvents)
	}
	if bobEvents[0]["is_sent"] != false {
		t.Error("recipient copy must not be flagged is_sent")
	}
	if bobEvents[0]["message"] != "hi" || bobEvents[0]["sender"] != "alice" {
		t.Fatalf("bob event payload: %+v", bobEvents[0])
	}

	aliceEvents := drain(t, alice)
	if len(aliceEvents) != 1 || aliceEvents[0]["is_sent"] != true {
		t.Fatalf("sender echo missing is_sent: %+v", aliceEvents)
	}

	if len(env.messages.messages) != 1 {
		t.Fatalf("persisted messages = %d, want 1", len(env.messages.messages))
	}
}

func TestChatMessageValidation(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	ctx := context.Background()

	env.hub.handleInbound(ctx, alice, []byte(`{"type":"chat_message","message":"hi"}`))
	events := drain(t, alice)
	if len(events) != 1 || events[0]["type"] != "error" {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if len(env.messages.messages) != 0 {
		t.Error("invalid message was persisted")
	}
}

func TestMalformedAndUnknownInbound(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	ctx := context.Background()

	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"type":`},
		{"unknown kind", `{"type":"dance"}`},
		{"server-issued kind", `{"type":"game_start"}`},
		{"server-issued error kind", `{"type":"connection_established"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env.hub.handleInbound(ctx, alice, []byte(tc.raw))
			events := drain(t, alice)
			if len(events) != 1 || events[0]["type"] != "error" {
				t.Fatalf("expected error event, got %+v", events)
			}
		})
	}
}

func TestInviteAcceptStartsGameForBothParties(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	ctx := context.Background()

	env.hub.handleInbound(ctx, alice, []byte(`{"type":"game_invite","recipient_id":2}`))

	bobEvents := drain(t, bob)
	if len(bobEvents) != 1 || bobEvents[0]["type"] != "game_invite" {
		t.Fatalf("bob did not receive the invite: %+v", bobEvents)
	}
	if len(drain(t, alice)) != 0 {
		t.Error("inviter must not receive their own invite")
	}

	env.hub.handleInbound(ctx, bob, []byte(`{"type":"game_invite_response","recipient_id":1,"accepted":true}`))

	aliceEvents := drain(t, alice)
	responses := eventsOfKind(aliceEvents, KindGameInviteResponse)
	if len(responses) != 1 || responses[0]["accepted"] != true {
		t.Fatalf("inviter did not receive the acceptance: %+v", aliceEvents)
	}

	aliceStarts := eventsOfKind(aliceEvents, KindGameStart)
	bobStarts := eventsOfKind(drain(t, bob), KindGameStart)
	if len(aliceStarts) != 1 || len(bobStarts) != 1 {
		t.Fatalf("each party must get exactly one game_start: alice=%d bob=%d", len(aliceStarts), len(bobStarts))
	}

	// Один и тот же game_id, взаимодополняющие роли, хост — пригласивший.
	if aliceStarts[0]["game_id"] == "" || aliceStarts[0]["game_id"] != bobStarts[0]["game_id"] {
		t.Error("game_id must be shared and non-empty")
	}
	if aliceStarts[0]["is_host"] != true || bobStarts[0]["is_host"] != false {
		t.Error("inviter must host, responder must not")
	}
	if aliceStarts[0]["host_name"] != "alice" || bobStarts[0]["host_name"] != "alice" {
		t.Error("host_name must name the inviter on both sides")
	}

	invite, err := env.invites.GetLatestPending(ctx, 1, 2)
	if err == nil {
		t.Fatalf("invite is still pending: %+v", invite)
	}
}

func TestInviteRejectDoesNotStartGame(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	ctx := context.Background()

	env.hub.handleInbound(ctx, alice, []byte(`{"type":"game_invite","recipient_id":2}`))
	drain(t, bob)

	env.hub.handleInbound(ctx, bob, []byte(`{"type":"game_invite_response","recipient_id":1,"accepted":false}`))

	aliceEvents := drain(t, alice)
	if len(eventsOfKind(aliceEvents, KindGameStart)) != 0 {
		t.Error("rejection must not start a game")
	}
	responses := eventsOfKind(aliceEvents, KindGameInviteResponse)
	if len(responses) != 1 || responses[0]["accepted"] != false {
		t.Fatalf("inviter did not receive the rejection: %+v", aliceEvents)
	}
	if len(eventsOfKind(drain(t, bob), KindGameStart)) != 0 {
		t.Error("responder must not receive game_start after rejecting")
	}
}

func TestExpiredInviteCannotBeAccepted(t *testing.T) {
	env := newHubEnv()
	alice := env.connect(1, "alice")
	bob := env.connect(2, "bob")
	ctx := context.Background()

	stale := &models.GameInvite{
		SenderID:    1,
		RecipientID: 2,
		CreatedAt:   time.Now().Add(-models.InviteTTL - time.Minute),
	}
	if err := env.invites.Create(ctx, stale); err != nil {
		t.Fatalf("create invite: %v", err)
	}

	env.hub.handleInbound(ctx, bob, []byte(`{"type":"game_invite_response","recipient_id":1,"accepted":true}`))

	bobEvents := drain(t, bob)
	if len(bobEvents) != 1 || bobEvents[0]["type"] != "error" {
		t.Fatalf("expected error for expired invite, got %+v", bobEvents)
	}
	if len(drain(t, alice)) != 0 {
		t.Error("inviter must not be notified about an expired response")
	}
	if env.invites.invites[stale.ID].Status != models.InviteExpired {
		t.Error("stale invite was not marked expired")
	}
}

func TestMultipleConnectionsFanOut(t *testing.T) {
	env := newHubEnv()
	first := env.connect(1, "alice")
	second := env.connect(1, "alice")

	env.hub.SendToUser(1, ErrorEvent{Type: KindError, Error: "ping"})

	if len(drain(t, first)) != 1 || len(drain(t, second)) != 1 {
		t.Fatal("event must reach every connection of the user")
	}
}
