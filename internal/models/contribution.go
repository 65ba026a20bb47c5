package models

import (
	"time"
)

// Contribution represents one member's claimed payment into the pooled fund
// for one calendar month. The (member, month) pair and the OCR transaction
// id are both unique at the database level; duplicates indicate a reused
// payment screenshot.
type Contribution struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	MemberID  uint    `gorm:"not null;index;uniqueIndex:idx_contributions_member_month" json:"member_id"`
	Month     string  `gorm:"size:7;not null;uniqueIndex:idx_contributions_member_month" json:"month"` // YYYY-MM
	Amount    float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	Provider  string  `gorm:"size:20;not null" json:"provider"`
	ProofPath string  `gorm:"not null" json:"-"`

	// OCR outcome, captured verbatim at submission time
	OCRStatus        string     `gorm:"column:ocr_status;default:pending" json:"ocr_status"`
	TransactionID    *string    `gorm:"uniqueIndex" json:"transaction_id"`
	OCRAmount        *float64   `gorm:"column:ocr_amount;type:decimal(12,2)" json:"ocr_amount"`
	OCRDate          *string    `gorm:"column:ocr_date;size:32" json:"ocr_date"`
	OCRTime          *string    `gorm:"column:ocr_time;size:32" json:"ocr_time"`
	PayeeName        *string    `json:"payee_name"`
	RawText          string     `gorm:"type:text" json:"-"`
	DetectedProvider *string    `gorm:"size:20" json:"detected_provider"`

	Status      string     `gorm:"default:pending;not null;index" json:"status"`
	Remarks     string     `gorm:"type:text" json:"remarks"`
	PaymentDate *time.Time `json:"payment_date"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// TableName specifies the table name for Contribution
func (Contribution) TableName() string {
	return "contributions"
}

// Contribution status constants
const (
	ContributionStatusPending  = "pending"
	ContributionStatusDone     = "done"
	ContributionStatusRejected = "rejected"
)

// OCR status constants
const (
	OCRStatusPending = "pending"
	OCRStatusSuccess = "success"
	OCRStatusFailed  = "failed"
)

// Payment app provider constants
const (
	ProviderGPay    = "gpay"
	ProviderPhonePe = "phonepe"
)

// ValidProvider reports whether p is a supported payment app
func ValidProvider(p string) bool {
	return p == ProviderGPay || p == ProviderPhonePe
}

// MayApprove returns true if the contribution can move to done
func (c *Contribution) MayApprove() bool {
	return c.Status == ContributionStatusPending
}

// MayReject returns true if the contribution can be rejected. Rejecting an
// already rejected record is allowed so admins can revise remarks; done is
// terminal.
func (c *Contribution) MayReject() bool {
	return c.Status != ContributionStatusDone
}

// IsTerminal returns true once the contribution reached done or rejected
func (c *Contribution) IsTerminal() bool {
	return c.Status == ContributionStatusDone || c.Status == ContributionStatusRejected
}

// ContributionResponse is the JSON response format for contributions
type ContributionResponse struct {
	ID               uint       `json:"id"`
	MemberID         uint       `json:"member_id"`
	MemberName       string     `json:"member_name,omitempty"`
	Month            string     `json:"month"`
	Amount           float64    `json:"amount"`
	Provider         string     `json:"provider"`
	Status           string     `json:"status"`
	OCRStatus        string     `json:"ocr_status"`
	TransactionID    *string    `json:"transaction_id"`
	OCRAmount        *float64   `json:"ocr_amount"`
	DetectedProvider *string    `json:"detected_provider"`
	PayeeName        *string    `json:"payee_name"`
	Remarks          string     `json:"remarks,omitempty"`
	PaymentDate      *time.Time `json:"payment_date"`
	HasProof         bool       `json:"has_proof"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToResponse converts Contribution to ContributionResponse
func (c *Contribution) ToResponse() ContributionResponse {
	resp := ContributionResponse{
		ID:               c.ID,
		MemberID:         c.MemberID,
		Month:            c.Month,
		Amount:           c.Amount,
		Provider:         c.Provider,
		Status:           c.Status,
		OCRStatus:        c.OCRStatus,
		TransactionID:    c.TransactionID,
		OCRAmount:        c.OCRAmount,
		DetectedProvider: c.DetectedProvider,
		PayeeName:        c.PayeeName,
		Remarks:          c.Remarks,
		PaymentDate:      c.PaymentDate,
		HasProof:         c.ProofPath != "",
		CreatedAt:        c.CreatedAt,
	}
	if c.Member.ID != 0 {
		resp.MemberName = c.Member.FullName
	}
	return resp
}
