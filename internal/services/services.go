package services

import (
	"github.com/mandalhq/mandal-api/internal/config"
	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/ocr"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Contribution *ContributionService
	Loan         *LoanService
	Fund         *FundService
	Notification *NotificationService
	Email        *EmailService
	Audit        *AuditService
	Analytics    *AnalyticsService
	Export       *ExportService
	Report       *ReportService
	Slip         *SlipService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, extractor ocr.Extractor, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.Member)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)
	slipSvc := NewSlipService(store)

	fundSvc := NewFundService(repos.Fund)
	analyticsSvc := NewAnalyticsService(repos.Fund, fundSvc)

	return &Services{
		Contribution: NewContributionService(repos.Contribution, repos.Member, notificationSvc, emailSvc, auditSvc, slipSvc, store, extractor, worker),
		Loan:         NewLoanService(repos.Loan, repos.Member, fundSvc, notificationSvc, emailSvc, auditSvc, slipSvc, store, extractor, worker),
		Fund:         fundSvc,
		Notification: notificationSvc,
		Email:        emailSvc,
		Audit:        auditSvc,
		Analytics:    analyticsSvc,
		Export:       NewExportService(repos.Contribution, analyticsSvc),
		Report:       NewReportService(repos.Loan, repos.Contribution, repos.Member),
		Slip:         slipSvc,
		Job:          NewJobService(worker, repos.Member, notificationSvc, emailSvc),
	}
}
