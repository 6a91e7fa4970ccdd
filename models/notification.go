package models

import "time"

// Notification — долговременное уведомление, читается поллингом.
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Message — сохранённое сообщение чата между двумя пользователями.
type Message struct {
	ID          int       `json:"id"`
	SenderID    int       `json:"sender_id"`
	RecipientID int       `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
	InviteExpired  InviteStatus = "expired"
)

// InviteTTL — время жизни pending-приглашения.
const InviteTTL = 3 * time.Minute

// GameInvite — приглашение на казуальную игру; живёт три минуты.
type GameInvite struct {
	ID          int          `json:"id"`
	SenderID    int          `json:"sender_id"`
	RecipientID int          `json:"recipient_id"`
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}
