package handlers

import (
	"github.com/mandalhq/mandal-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Contribution *ContributionHandler
	Loan         *LoanHandler
	Fund         *FundHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Contribution: NewContributionHandler(svcs.Contribution),
		Loan:         NewLoanHandler(svcs.Loan),
		Fund:         NewFundHandler(svcs.Fund, svcs.Analytics, svcs.Export),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report, svcs.Loan),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}
