package services

import (
	"context"
	"fmt"

	"github.com/Extrase/ft-Transcendance/models"
	"github.com/Extrase/ft-Transcendance/realtime"
	"github.com/Extrase/ft-Transcendance/repositories"
)

const notificationsPageSize = 50

// NotificationService пишет долговременные уведомления и дублирует их
// в realtime-канал получателя.
type NotificationService interface {
	Notify(ctx context.Context, exec repositories.SQLExecutor, userID int, message, category string) error
	ListForUser(ctx context.Context, userID int) ([]*models.Notification, error)
}

type notificationService struct {
	repo repositories.NotificationRepository
	hub  Notifier
}

func NewNotificationService(repo repositories.NotificationRepository, hub Notifier) NotificationService {
	return &notificationService{repo: repo, hub: hub}
}

func (s *notificationService) Notify(ctx context.Context, exec repositories.SQLExecutor, userID int, message, category string) error {
	n := &models.Notification{UserID: userID, Message: message, Type: category}
	if err := s.repo.Create(ctx, exec, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.hub.SendToUser(userID, realtime.NotificationEvent{
		Type:     realtime.KindNotification,
		Message:  message,
		Category: category,
	})
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID int) ([]*models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, notificationsPageSize)
}
