package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/pkg/logger"
)

// JobService owns scheduled background work and exposes worker stats
type JobService struct {
	worker          *jobs.Worker
	memberRepo      repository.MemberRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
}

func NewJobService(
	worker *jobs.Worker,
	memberRepo repository.MemberRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
) *JobService {
	return &JobService{
		worker:          worker,
		memberRepo:      memberRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
	}
}

// GetWorkerStats returns the worker pool counters
func (s *JobService) GetWorkerStats() jobs.WorkerStats {
	return s.worker.GetStats()
}

// SendContributionReminders nudges every eligible member who has not
// submitted a contribution for the current month. Runs daily; members
// who already paid drop out of the query.
func (s *JobService) SendContributionReminders(ctx context.Context) error {
	month := time.Now().Format("2006-01")

	members, err := s.memberRepo.FindEligibleWithoutContribution(ctx, month)
	if err != nil {
		return fmt.Errorf("failed to find members without contribution: %w", err)
	}
	if len(members) == 0 {
		return nil
	}

	logger.Info(fmt.Sprintf("[Reminders] Sending %d contribution reminders for %s", len(members), month))

	for _, member := range members {
		m := member
		if err := s.notificationSvc.NotifyMember(ctx, m.ID,
			"Contribution reminder",
			fmt.Sprintf("Your contribution for %s is still due", month),
			models.NotificationTypeContributionReminder, nil); err != nil {
			logger.Error(fmt.Sprintf("[Reminders] failed to notify member %d: %v", m.ID, err))
			continue
		}
		if err := s.emailSvc.SendContributionReminder(ctx, &m, month); err != nil {
			logger.Error(fmt.Sprintf("[Reminders] failed to email member %d: %v", m.ID, err))
		}
	}

	return nil
}
