package handlers

import (
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/repositories"
)

const conversationPageSize = 50

type ChatHandler struct {
	messages repositories.MessageRepository
}

func NewChatHandler(messages repositories.MessageRepository) *ChatHandler {
	return &ChatHandler{messages: messages}
}

// ConversationHandler обрабатывает GET /messages/{peerID}: история переписки
// текущего пользователя с собеседником, старые первыми.
func (h *ChatHandler) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	peerID, err := getIDFromURL(r, "peerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	messages, err := h.messages.ListConversation(r.Context(), currentUserID, peerID, conversationPageSize)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, messages, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
