package service

import (
	"context"

	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
)

const inboxLimit = 20

// NotificationPublisher pushes a stored notification to the recipient's live connections.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, note *models.Notification) error
}

// Notifier is the sink used by engagement and comment flows.
type Notifier interface {
	Notify(ctx context.Context, note *models.Notification) error
}

type NotificationService struct {
	repo      repository.NotificationRepository
	publisher NotificationPublisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher NotificationPublisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Notify stores the notification, then publishes it. Publish failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, note *models.Notification) error {
	if err := s.repo.Create(ctx, note); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishNotification(ctx, note); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			"notification_id", note.ID.String(), "user_id", note.UserID.String(), "error", err)
	}
	return nil
}

func (s *NotificationService) Inbox(ctx context.Context, userID uuid.UUID) (*models.NotificationInbox, error) {
	notes, err := s.repo.ListByUser(ctx, userID, inboxLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.NotificationInbox{Notifications: notes, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}
