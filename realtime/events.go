package realtime

import "time"

// MessageKind — тип сообщения шины. Входящие и исходящие сообщения несут
// kind в поле "type"; неизвестный kind — не фатальная ошибка для соединения.
type MessageKind string

const (
	KindChatMessage           MessageKind = "chat_message"
	KindGameInvite            MessageKind = "game_invite"
	KindGameInviteResponse    MessageKind = "game_invite_response"
	KindGameStart             MessageKind = "game_start"
	KindConnectionEstablished MessageKind = "connection_established"
	KindNotification          MessageKind = "notification"
	KindError                 MessageKind = "error"
)

// inboundEnvelope — декодированное входящее сообщение клиента.
// Разбирается в одну структуру и диспетчеризуется по Type.
type inboundEnvelope struct {
	Type        MessageKind `json:"type"`
	RecipientID int         `json:"recipient_id,omitempty"`
	Message     string      `json:"message,omitempty"`
	Accepted    *bool       `json:"accepted,omitempty"`
}

type ConnectionEstablishedEvent struct {
	Type   MessageKind `json:"type"`
	UserID int         `json:"user_id"`
}

type ErrorEvent struct {
	Type  MessageKind `json:"type"`
	Error string      `json:"error"`
}

type ChatMessageEvent struct {
	Type        MessageKind `json:"type"`
	SenderID    int         `json:"sender_id"`
	Sender      string      `json:"sender"`
	RecipientID int         `json:"recipient_id"`
	Message     string      `json:"message"`
	IsSent      bool        `json:"is_sent"`
	Timestamp   time.Time   `json:"timestamp"`
}

type GameInviteEvent struct {
	Type        MessageKind `json:"type"`
	SenderID    int         `json:"sender_id"`
	Sender      string      `json:"sender"`
	RecipientID int         `json:"recipient_id"`
}

type GameInviteResponseEvent struct {
	Type        MessageKind `json:"type"`
	SenderID    int         `json:"sender_id"`
	RecipientID int         `json:"recipient_id"`
	Accepted    bool        `json:"accepted"`
}

// GameStartEvent доставляется обеим сторонам принятого приглашения.
// Хостом назначается пригласивший; game_id одинаков у обеих сторон.
type GameStartEvent struct {
	Type         MessageKind `json:"type"`
	GameID       string      `json:"game_id"`
	OpponentID   int         `json:"opponent_id"`
	OpponentName string      `json:"opponent_name"`
	IsHost       bool        `json:"is_host"`
	HostName     string      `json:"host_name"`
}

type NotificationEvent struct {
	Type     MessageKind `json:"type"`
	Message  string      `json:"message"`
	Category string      `json:"category"`
}
