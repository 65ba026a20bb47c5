package services

import (
	"context"

	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/repository"
)

type NotificationService struct {
	repo       repository.NotificationRepository
	memberRepo repository.MemberRepository
}

func NewNotificationService(repo repository.NotificationRepository, memberRepo repository.MemberRepository) *NotificationService {
	return &NotificationService{repo: repo, memberRepo: memberRepo}
}

func (s *NotificationService) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindByMember(ctx context.Context, memberID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByMember(ctx, memberID, query)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, memberID uint) error {
	return s.repo.MarkAllAsRead(ctx, memberID)
}

func (s *NotificationService) CountUnread(ctx context.Context, memberID uint) (int64, error) {
	return s.repo.CountUnread(ctx, memberID)
}

func (s *NotificationService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *NotificationService) NotifyMember(ctx context.Context, memberID uint, title, message, notifType string, relatedID *uint) error {
	notification := &models.Notification{
		MemberID:         memberID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
		RelatedID:        relatedID,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyAdmins fans the same notification out to every active admin.
// A failed insert for one admin does not stop delivery to the rest.
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType string, relatedID *uint) error {
	admins, err := s.memberRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		notification := &models.Notification{
			MemberID:         admin.ID,
			Title:            title,
			Message:          message,
			NotificationType: &notifType,
			RelatedID:        relatedID,
		}
		s.repo.Create(ctx, notification)
	}
	return nil
}
