package models

import "time"

type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	Alias        string    `json:"alias"`
	IsBot        bool      `json:"is_bot"`
	JoinedAt     time.Time `json:"joined_at"`
}
