package services

import (
	"context"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

// NotificationService reads and acknowledges a user's notifications.
// Scoping to the acting user happens in the queries themselves.
type NotificationService struct {
	repo *storage.Repository
}

func NewNotificationService(repo *storage.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) ListNotifications(ctx context.Context, actor uuid.UUID, limit, offset int) ([]core.Notification, int, error) {
	return s.repo.ListNotificationsByUser(ctx, actor, limit, offset)
}

func (s *NotificationService) CountUnread(ctx context.Context, actor uuid.UUID) (int, error) {
	return s.repo.CountUnreadNotifications(ctx, actor)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor, notificationUUID uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, notificationUUID, actor)
}
