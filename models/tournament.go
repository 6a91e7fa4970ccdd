package models

import "time"

// Tournament представляет турнир на выбывание.
type Tournament struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	CreatorID       int        `json:"creator_id"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	MaxParticipants int        `json:"max_participants"`
	IsActive        bool       `json:"is_active"`
	IsCompleted     bool       `json:"is_completed"`
	// CurrentRound равен 0 до старта и только растёт после него.
	CurrentRound int       `json:"current_round"`
	WinnerID     *int      `json:"winner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []Participant     `json:"participants,omitempty"`
	Matches      []TournamentMatch `json:"matches,omitempty"`
}
