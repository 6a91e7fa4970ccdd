package models

import "time"

// PlayerStats — агрегированная статистика игрока.
// Создаётся лениво при первой записанной игре.
type PlayerStats struct {
	PlayerID     int     `json:"player_id"`
	TotalGames   int     `json:"total_games"`
	GamesWon     int     `json:"games_won"`
	GamesLost    int     `json:"games_lost"`
	PerfectGames int     `json:"perfect_games"`
	WinRatio     float64 `json:"win_ratio"`
}

type GameMode string

const (
	ModeSolo        GameMode = "solo"
	ModeMultiplayer GameMode = "multiplayer"
	ModeTournament  GameMode = "tournament"
)

// GameRecord — одна сыгранная партия в истории игрока. Append-only.
type GameRecord struct {
	ID              int       `json:"id"`
	PlayerID        int       `json:"player_id"`
	Opponent        string    `json:"opponent"`
	PlayerScore     int       `json:"player_score"`
	OpponentScore   int       `json:"opponent_score"`
	Mode            GameMode  `json:"mode"`
	Difficulty      string    `json:"difficulty,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	IsPerfectGame   bool      `json:"is_perfect_game"`
	TournamentName  *string   `json:"tournament_name,omitempty"`
	TournamentRound *int      `json:"tournament_round,omitempty"`
	PlayedAt        time.Time `json:"played_at"`
}
