package models

import (
	"time"
)

// Member represents a registered mandal member. Identity, registration and
// KYC review are owned by the identity service; the ledger reads the
// approval/KYC columns only as an eligibility gate and to fan out admin
// notifications.
type Member struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone"`
	Role           string     `gorm:"default:member;index" json:"role"`
	ApprovalStatus string     `gorm:"default:pending;index" json:"approval_status"`
	KYCStatus      string     `gorm:"column:kyc_status;default:pending" json:"kyc_status"`
	Active         bool       `gorm:"default:true" json:"active"`
	DiscardedAt    *time.Time `gorm:"index" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Associations
	Contributions []Contribution `gorm:"foreignKey:MemberID" json:"contributions,omitempty"`
	Loans         []Loan         `gorm:"foreignKey:MemberID" json:"loans,omitempty"`
	Notifications []Notification `gorm:"foreignKey:MemberID" json:"notifications,omitempty"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// Role constants
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Approval status constants
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// KYC status constants
const (
	KYCStatusPending     = "pending"
	KYCStatusUnderReview = "under_review"
	KYCStatusVerified    = "verified"
	KYCStatusRejected    = "rejected"
)

// IsAdmin returns true if the member has the admin role
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// IsEligible reports whether the member may submit contributions and
// request loans: approved registration plus verified KYC.
func (m *Member) IsEligible() bool {
	return m.Active && m.DiscardedAt == nil &&
		m.ApprovalStatus == ApprovalStatusApproved &&
		m.KYCStatus == KYCStatusVerified
}
