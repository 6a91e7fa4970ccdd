package handlers

import (
	"errors"
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/repositories"
	"github.com/Extrase/ft-Transcendance/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

type createTournamentInput struct {
	Name            string `json:"name"`
	CreatorAlias    string `json:"creator_alias"`
	MaxParticipants int    `json:"max_participants"`
}

// CreateHandler обрабатывает POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input createTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), currentUserID, input.Name, input.CreatorAlias, input.MaxParticipants)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusCreated, "tournament created", tournament)
}

// ListHandler обрабатывает GET /tournaments?filter=active|mine|completed
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter

	switch r.URL.Query().Get("filter") {
	case "", "active":
		filter.OnlyActive = true
	case "completed":
		filter.OnlyCompleted = true
	case "mine":
		currentUserID, err := middleware.GetUserIDFromContext(r.Context())
		if err != nil {
			unauthorizedResponse(w, r, "authentication required")
			return
		}
		filter.CreatorID = &currentUserID
	default:
		badRequestResponse(w, r, errors.New("filter must be one of: active, mine, completed"))
		return
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournaments, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetDetail(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tournament, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type joinTournamentInput struct {
	Alias string `json:"alias"`
}

// JoinHandler обрабатывает POST /tournaments/{tournamentID}/join
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input joinTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.Join(r.Context(), id, currentUserID, input.Alias); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusOK, "joined tournament", nil)
}

// LeaveHandler обрабатывает POST /tournaments/{tournamentID}/leave
func (h *TournamentHandler) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.Leave(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusOK, "left tournament", nil)
}

// StartHandler обрабатывает POST /tournaments/{tournamentID}/start
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Start(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	successResponse(w, r, http.StatusOK, "tournament started", tournament)
}
