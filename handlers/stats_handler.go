package handlers

import (
	"errors"
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(ss services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: ss}
}

type recordGameInput struct {
	Opponent        string  `json:"opponent"`
	PlayerScore     int     `json:"player_score"`
	OpponentScore   int     `json:"opponent_score"`
	Mode            string  `json:"mode"`
	Difficulty      string  `json:"difficulty"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// RecordGameHandler обрабатывает POST /games: результат казуальной партии.
func (h *StatsHandler) RecordGameHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input recordGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerScore < 0 || input.OpponentScore < 0 {
		badRequestResponse(w, r, errors.New("scores must not be negative"))
		return
	}
	mode := models.GameMode(input.Mode)
	switch mode {
	case "", models.ModeSolo, models.ModeMultiplayer:
	default:
		badRequestResponse(w, r, errors.New("mode must be solo or multiplayer"))
		return
	}

	record, err := h.statsService.RecordCasualGame(r.Context(), services.RecordGameParams{
		PlayerID:        currentUserID,
		Opponent:        input.Opponent,
		PlayerScore:     input.PlayerScore,
		OpponentScore:   input.OpponentScore,
		Mode:            mode,
		Difficulty:      input.Difficulty,
		DurationSeconds: input.DurationSeconds,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusCreated, "game recorded", record)
}

// PlayerStatsHandler обрабатывает GET /players/{playerID}/stats
func (h *StatsHandler) PlayerStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.statsService.GetPlayerStats(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecentGamesHandler обрабатывает GET /players/{playerID}/games
func (h *StatsHandler) RecentGamesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.statsService.GetRecentGames(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, games, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ProfileHandler обрабатывает GET /profile: агрегат текущего пользователя.
func (h *StatsHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	profile, err := h.statsService.GetProfile(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, profile, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
