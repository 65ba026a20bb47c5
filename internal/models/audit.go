package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MemberID  uint      `gorm:"not null" json:"member_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, APPROVE, REJECT, PAY
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Contribution, Loan, Installment
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
