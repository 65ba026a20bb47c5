package models

import (
	"time"
)

// Notification represents an in-app notification for a member or admin
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	MemberID         uint       `gorm:"not null;index" json:"member_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"not null" json:"message"`
	NotificationType *string    `gorm:"index" json:"notification_type"`
	RelatedID        *uint      `json:"related_id"`
	ReadAt           *time.Time `gorm:"index" json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	Member Member `gorm:"foreignKey:MemberID" json:"-"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeContributionSubmitted = "contribution_submitted"
	NotificationTypeContributionApproved  = "contribution_approved"
	NotificationTypeContributionRejected  = "contribution_rejected"
	NotificationTypeContributionReminder  = "contribution_reminder"
	NotificationTypeLoanRequested         = "loan_requested"
	NotificationTypeLoanApproved          = "loan_approved"
	NotificationTypeLoanRejected          = "loan_rejected"
	NotificationTypeLoanClosed            = "loan_closed"
	NotificationTypeInstallmentSubmitted  = "installment_submitted"
	NotificationTypeInstallmentApproved   = "installment_approved"
	NotificationTypeInstallmentRejected   = "installment_rejected"
	NotificationTypeSystem                = "system"
)

// IsRead returns true if notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkAsRead marks the notification as read
func (n *Notification) MarkAsRead() {
	now := time.Now()
	n.ReadAt = &now
}

// NotificationResponse is the JSON response format
type NotificationResponse struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	NotificationType *string    `json:"notification_type"`
	RelatedID        *uint      `json:"related_id"`
	Read             bool       `json:"read"`
	ReadAt           *time.Time `json:"read_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts Notification to NotificationResponse
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: n.NotificationType,
		RelatedID:        n.RelatedID,
		Read:             n.IsRead(),
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}
}

// FundSnapshot is the derived view of the pooled fund. It is computed
// fresh from the contributions and loans tables on every query and never
// stored or cached.
type FundSnapshot struct {
	TotalFund     float64 `json:"total_fund"`
	TotalLoanOut  float64 `json:"total_loan_out"`
	AvailableFund float64 `json:"available_fund"`
}
