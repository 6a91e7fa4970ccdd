package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/realtime"
	"github.com/Extrase/ft-Transcendance/repositories"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub      *realtime.Hub
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, userRepo repositories.UserRepository, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{hub: hub, userRepo: userRepo, logger: logger}
}

// ServeWs обрабатывает GET /ws. Личность берётся из JWT (токен в query,
// см. middleware.Authenticate), канал привязывается к user id.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		h.logger.Warn("websocket upgrade failed",
			slog.Int("user_id", userID), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, user.ID, user.Nickname)
	h.hub.Register <- client

	// Приветствие кладётся в буфер соединения напрямую: регистрация в хабе
	// может ещё не примениться.
	if err := client.SendEvent(realtime.ConnectionEstablishedEvent{
		Type:   realtime.KindConnectionEstablished,
		UserID: user.ID,
	}); err != nil {
		h.logger.Error("failed to queue welcome event",
			slog.Int("user_id", user.ID), slog.Any("error", err))
	}

	// Контекст запроса умирает вместе с ServeHTTP; соединение живёт дольше.
	go client.WritePump()
	go client.ReadPump(context.Background())
}
