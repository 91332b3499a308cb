package service

import (
	"context"

	"careconnect-backend/internal/domain"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	email    EmailSender
}

func NewNotificationService(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, email EmailSender) NotificationService {
	return &notificationService{noteRepo: noteRepo, userRepo: userRepo, email: email}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int64, page, pageSize int64) ([]domain.Notification, int64, error) {
	return s.noteRepo.List(ctx, userID, page, pageSize)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

// Notify stores an in-app notification and mirrors it to email. Neither
// failure propagates; settlement and lifecycle operations must not fail
// because a side channel did.
func (s *notificationService) Notify(ctx context.Context, userID int64, title, message string, attributes map[string]string) {
	note := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attributes,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		logger.Error("Failed to store notification", "user_id", userID, "title", title, "error", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Notification email skipped, user lookup failed", "user_id", userID, "error", err)
		return
	}
	if err := s.email.Send(ctx, user.Email, user.Name, title, message); err != nil {
		logger.Warn("Notification email failed", "user_id", userID, "error", err)
	}
}
