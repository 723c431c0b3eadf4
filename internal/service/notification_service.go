package service

import (
	"context"
	"log/slog"

	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/notifications"
	"petconnect/internal/observability"
	"petconnect/internal/repository"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        notifications.Publisher
}

// NewNotificationService wires persistence and live delivery. A nil publisher
// persists without pushing.
func NewNotificationService(notificationRepo repository.NotificationRepository, publisher notifications.Publisher) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, publisher: publisher}
}

// NotifyInput describes one notification to a single recipient.
type NotifyInput struct {
	UserID          uint
	Type            models.NotificationType
	Message         string
	RelatedPostID   *uint
	RelatedReportID *uint
	SenderID        *uint
}

// Create persists the notification and pushes it to the recipient's sockets.
// A failed push is logged; the stored notification is still returned.
func (s *NotificationService) Create(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	n := &models.Notification{
		UserID:          in.UserID,
		Type:            in.Type,
		Message:         in.Message,
		RelatedPostID:   in.RelatedPostID,
		RelatedReportID: in.RelatedReportID,
		SenderID:        in.SenderID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n.UserID, models.NewNotificationDTO(n)); err != nil {
			middleware.Logger.WarnContext(ctx, "notification push failed",
				slog.Uint64("notification_id", uint64(n.ID)),
				slog.Any("error", err),
			)
		}
	}
	return n, nil
}

// Notify is Create for callers that must not fail because of a notification.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) {
	if s == nil {
		return
	}
	if _, err := s.Create(ctx, in); err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to create notification",
			slog.Uint64("recipient_id", uint64(in.UserID)),
			slog.String("type", string(in.Type)),
			slog.Any("error", err),
		)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, models.NewForbiddenError("You can only update your own notifications")
	}
	if !n.IsRead {
		if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
