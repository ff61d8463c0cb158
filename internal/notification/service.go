package notification

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"appointment-service/internal/models"
)

var ErrNotFound = errors.New("notification not found")

// Repository persists notifications.
type Repository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListByUser returns notifications newest first. An empty userID lists everyone.
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	// MarkRead returns ErrNotFound when id does not exist.
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// Service manages user notifications. It satisfies scheduling.Notifier.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService returns a notification service backed by repo.
func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, userID, title, message string, appointmentID *string) (*models.Notification, error) {
	if userID == "" {
		return nil, errors.New("notification requires a user id")
	}
	n := &models.Notification{
		UserID:        userID,
		Title:         title,
		Message:       message,
		AppointmentID: appointmentID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

func (s *Service) Notify(ctx context.Context, userID, title, message string, appointmentID *string) error {
	_, err := s.Create(ctx, userID, title, message, appointmentID)
	return err
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	if userID == "" {
		return []models.Notification{}, nil
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, "")
}

func (s *Service) MarkAsRead(ctx context.Context, id string) (*models.Notification, error) {
	return s.repo.MarkRead(ctx, id)
}

// MarkAllAsRead flags every unread notification for userID and reports how many changed.
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Debug("notifications marked read", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}
