package handlers

import (
	"net/http"

	"github.com/Extrase/ft-Transcendance/middleware"
	"github.com/Extrase/ft-Transcendance/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// ListHandler обрабатывает GET /notifications: последние уведомления
// текущего пользователя, новые первыми.
func (h *NotificationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, notifications, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
