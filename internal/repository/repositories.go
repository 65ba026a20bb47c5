package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Member       MemberRepository
	Contribution ContributionRepository
	Loan         LoanRepository
	Fund         FundRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Member:       NewMemberRepository(db),
		Contribution: NewContributionRepository(db),
		Loan:         NewLoanRepository(db),
		Fund:         NewFundRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
