package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/repositories"
	"github.com/google/uuid"
)

// HubDeps — зависимости шины для обработки входящих сообщений.
type HubDeps struct {
	Messages repositories.MessageRepository
	Invites  repositories.InviteRepository
	Users    repositories.UserRepository
	Logger   *slog.Logger
}

// Hub держит по одному логическому каналу на подключённого пользователя.
// Несколько одновременных соединений одного пользователя допустимы:
// событие доставляется в каждое.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu       sync.RWMutex
	sessions map[int]map[*Client]bool

	deps HubDeps
}

func NewHub(deps HubDeps) *Hub {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		sessions:   make(map[int]map[*Client]bool),
		deps:       deps,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.sessions[client.UserID]; !ok {
				h.sessions[client.UserID] = make(map[*Client]bool)
			}
			h.sessions[client.UserID][client] = true
			count := len(h.sessions[client.UserID])
			h.mu.Unlock()
			if count == 1 {
				h.setOnline(client.UserID, true)
			}
			h.deps.Logger.Info("realtime client registered",
				slog.Int("user_id", client.UserID), slog.Int("connections", count))

		case client := <-h.Unregister:
			lastConnection := false
			h.mu.Lock()
			if clients, ok := h.sessions[client.UserID]; ok {
				if _, okClient := clients[client]; okClient {
					client.closeSend()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.sessions, client.UserID)
						lastConnection = true
					}
				}
			}
			h.mu.Unlock()
			if lastConnection {
				h.setOnline(client.UserID, false)
			}
			h.deps.Logger.Info("realtime client unregistered", slog.Int("user_id", client.UserID))
		}
	}
}

// setOnline отражает присутствие в профиле: онлайн от первого соединения
// до последнего отключения.
func (h *Hub) setOnline(userID int, online bool) {
	if err := h.deps.Users.SetOnline(context.Background(), userID, online); err != nil {
		h.deps.Logger.Error("failed to update online flag",
			slog.Int("user_id", userID), slog.Any("error", err))
	}
}

// SendToUser доставляет событие во все соединения пользователя.
// Доставка best-effort: переполненный или закрытый канал пропускается.
func (h *Hub) SendToUser(userID int, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.deps.Logger.Error("failed to marshal realtime event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessions[userID] {
		client.trySend(data)
	}
}

// handleInbound разбирает и обрабатывает одно входящее сообщение клиента.
// Ошибки конкретного сообщения возвращаются только отправителю.
func (h *Hub) handleInbound(ctx context.Context, c *Client, raw []byte) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(c, "malformed message payload")
		return
	}

	switch env.Type {
	case KindChatMessage:
		h.handleChatMessage(ctx, c, env)
	case KindGameInvite:
		h.handleGameInvite(ctx, c, env)
	case KindGameInviteResponse:
		h.handleInviteResponse(ctx, c, env)
	case KindGameStart, KindConnectionEstablished, KindNotification, KindError:
		h.sendError(c, "message kind is server-issued and cannot be sent")
	default:
		h.sendError(c, "unknown message kind")
	}
}

func (h *Hub) handleChatMessage(ctx context.Context, c *Client, env inboundEnvelope) {
	if env.RecipientID == 0 || env.Message == "" {
		h.sendError(c, "chat_message requires recipient_id and message")
		return
	}

	msg := &models.Message{
		SenderID:    c.UserID,
		RecipientID: env.RecipientID,
		Content:     env.Message,
	}
	if err := h.deps.Messages.Create(ctx, msg); err != nil {
		h.deps.Logger.Error("failed to persist chat message", slog.Any("error", err))
		h.sendError(c, "failed to deliver message")
		return
	}

	event := ChatMessageEvent{
		Type:        KindChatMessage,
		SenderID:    c.UserID,
		Sender:      c.Nickname,
		RecipientID: env.RecipientID,
		Message:     env.Message,
		Timestamp:   msg.CreatedAt,
	}
	h.SendToUser(env.RecipientID, event)

	// Отправителю — эхо с пометкой "sent" для отображения в его чате.
	event.IsSent = true
	h.SendToUser(c.UserID, event)
}

func (h *Hub) handleGameInvite(ctx context.Context, c *Client, env inboundEnvelope) {
	if env.RecipientID == 0 || env.RecipientID == c.UserID {
		h.sendError(c, "game_invite requires a recipient")
		return
	}

	invite := &models.GameInvite{SenderID: c.UserID, RecipientID: env.RecipientID}
	if err := h.deps.Invites.Create(ctx, invite); err != nil {
		h.deps.Logger.Error("failed to persist game invite", slog.Any("error", err))
		h.sendError(c, "failed to send invite")
		return
	}

	h.SendToUser(env.RecipientID, GameInviteEvent{
		Type:        KindGameInvite,
		SenderID:    c.UserID,
		Sender:      c.Nickname,
		RecipientID: env.RecipientID,
	})
}

func (h *Hub) handleInviteResponse(ctx context.Context, c *Client, env inboundEnvelope) {
	if env.RecipientID == 0 || env.Accepted == nil {
		h.sendError(c, "game_invite_response requires recipient_id and accepted")
		return
	}
	inviterID := env.RecipientID

	invite, err := h.deps.Invites.GetLatestPending(ctx, inviterID, c.UserID)
	if err != nil {
		h.sendError(c, "no pending invite from this user")
		return
	}
	if time.Since(invite.CreatedAt) > models.InviteTTL {
		_ = h.deps.Invites.UpdateStatus(ctx, invite.ID, models.InviteExpired)
		h.sendError(c, "invite has expired")
		return
	}

	status := models.InviteRejected
	if *env.Accepted {
		status = models.InviteAccepted
	}
	if err := h.deps.Invites.UpdateStatus(ctx, invite.ID, status); err != nil {
		h.deps.Logger.Error("failed to update game invite", slog.Any("error", err))
		h.sendError(c, "failed to answer invite")
		return
	}

	h.SendToUser(inviterID, GameInviteResponseEvent{
		Type:        KindGameInviteResponse,
		SenderID:    c.UserID,
		RecipientID: inviterID,
		Accepted:    *env.Accepted,
	})

	if !*env.Accepted {
		return
	}

	inviter, err := h.deps.Users.GetByID(ctx, inviterID)
	if err != nil {
		h.deps.Logger.Error("failed to load inviter", slog.Int("user_id", inviterID), slog.Any("error", err))
		h.sendError(c, "failed to start game")
		return
	}

	// Единственная точка создания казуальной игры: свежий game_id обеим
	// сторонам, хост — пригласивший.
	gameID := uuid.NewString()
	h.SendToUser(inviterID, GameStartEvent{
		Type:         KindGameStart,
		GameID:       gameID,
		OpponentID:   c.UserID,
		OpponentName: c.Nickname,
		IsHost:       true,
		HostName:     inviter.Nickname,
	})
	h.SendToUser(c.UserID, GameStartEvent{
		Type:         KindGameStart,
		GameID:       gameID,
		OpponentID:   inviterID,
		OpponentName: inviter.Nickname,
		IsHost:       false,
		HostName:     inviter.Nickname,
	})
}

func (h *Hub) sendError(c *Client, message string) {
	data, err := json.Marshal(ErrorEvent{Type: KindError, Error: message})
	if err != nil {
		return
	}
	c.trySend(data)
}
