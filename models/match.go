package models

import "time"

// TournamentMatch — матч одного раунда сетки.
// Player2ID равен nil только для bye-матчей: участник без соперника
// проходит дальше автоматически, матч создаётся сразу завершённым.
type TournamentMatch struct {
	ID           int        `json:"id"`
	TournamentID int        `json:"tournament_id"`
	Player1ID    int        `json:"player1_id"`
	Player2ID    *int       `json:"player2_id,omitempty"`
	Player1Score int        `json:"player1_score"`
	Player2Score int        `json:"player2_score"`
	Round        int        `json:"round"`
	IsCompleted  bool       `json:"is_completed"`
	WinnerID     *int       `json:"winner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PlayedAt     *time.Time `json:"played_at,omitempty"`
}

// IsBye сообщает, был ли матч автоматическим проходом.
func (m *TournamentMatch) IsBye() bool {
	return m.Player2ID == nil
}

// HasPlayer проверяет, что пользователь играет в этом матче.
func (m *TournamentMatch) HasPlayer(userID int) bool {
	if m.Player1ID == userID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == userID
}
