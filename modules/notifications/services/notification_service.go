package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
)

type NotificationService struct {
	repo notification.Repository
}

func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateForUsers stores the same message once per user.
func (s *NotificationService) CreateForUsers(ctx context.Context, userIDs []int64, message string) ([]notification.Notification, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	items := make([]notification.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		items = append(items, notification.New(id, message))
	}
	created, err := s.repo.BulkCreate(ctx, items)
	if err != nil {
		return nil, errors.Wrap(err, "bulk create notifications")
	}
	return created, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64, limit int) ([]notification.Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}
