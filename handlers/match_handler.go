package handlers

import (
	"errors"
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// PlayInfoHandler обрабатывает GET /matches/{matchID}/play
func (h *MatchHandler) PlayInfoHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	info, err := h.matchService.GetPlayInfo(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, info, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type matchResultInput struct {
	Player1Score int  `json:"player1_score"`
	Player2Score int  `json:"player2_score"`
	WinnerID     *int `json:"winner_id,omitempty"`
}

// ResultHandler обрабатывает POST /matches/{matchID}/result
func (h *MatchHandler) ResultHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input matchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Player1Score < 0 || input.Player2Score < 0 {
		badRequestResponse(w, r, errors.New("scores must not be negative"))
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), id, currentUserID, input.Player1Score, input.Player2Score, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusOK, "match result recorded", match)
}
