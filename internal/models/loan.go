package models

import (
	"time"
)

// Loan represents one member's borrowing against the pooled fund. Interest
// is fixed at approval time (simple interest over the loan duration) and
// the pending amount is always re-derived from totalPayable minus the sum
// of approved installments, never decremented incrementally.
type Loan struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	MemberID       uint       `gorm:"not null;index" json:"member_id"`
	Amount         float64    `gorm:"type:decimal(12,2);not null" json:"amount"` // principal
	InterestRate   float64    `gorm:"type:decimal(6,2);default:0" json:"interest_rate"`
	InterestAmount float64    `gorm:"type:decimal(12,2);default:0" json:"interest_amount"`
	TotalPayable   float64    `gorm:"type:decimal(12,2);default:0" json:"total_payable"`
	Duration       int        `gorm:"default:12" json:"duration"` // months
	PendingAmount  float64    `gorm:"type:decimal(12,2);not null" json:"pending_amount"`
	Status         string     `gorm:"default:pending;not null;index" json:"status"`
	Reason         string     `gorm:"type:text" json:"reason"`
	Remarks        string     `gorm:"type:text" json:"remarks"`
	ApprovedAt     *time.Time `gorm:"index" json:"approved_at"`
	ClosedAt       *time.Time `json:"closed_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Associations
	Member       Member        `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Installments []Installment `gorm:"foreignKey:LoanID" json:"installments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
	LoanStatusActive   = "active"
	LoanStatusClosed   = "closed"
)

// MayApprove returns true if the loan can be approved
func (l *Loan) MayApprove() bool {
	return l.Status == LoanStatusPending
}

// MayReject returns true if the loan can be rejected. Re-rejecting lets an
// admin revise remarks; active/closed loans are past rejection.
func (l *Loan) MayReject() bool {
	return l.Status == LoanStatusPending || l.Status == LoanStatusRejected
}

// MayPay returns true if installments may be submitted against the loan
func (l *Loan) MayPay() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusApproved
}

// MayClose returns true if the loan can transition to closed
func (l *Loan) MayClose() bool {
	return (l.Status == LoanStatusActive || l.Status == LoanStatusApproved) && l.PendingAmount <= 0
}

// ApprovedInstallmentTotal sums the amounts of approved installments
func (l *Loan) ApprovedInstallmentTotal() float64 {
	var total float64
	for _, inst := range l.Installments {
		if inst.Status == InstallmentStatusApproved {
			total += inst.Amount
		}
	}
	return total
}

// Installment is one partial repayment event against a loan. Rows are
// append-only and ordered by Position; only Status and RejectionReason are
// mutated, always together with the parent loan in one transaction.
type Installment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LoanID          uint      `gorm:"not null;index;uniqueIndex:idx_installments_loan_position" json:"loan_id"`
	Position        int       `gorm:"not null;uniqueIndex:idx_installments_loan_position" json:"position"`
	Amount          float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAt          time.Time `gorm:"not null" json:"paid_at"`
	ReferenceID     *string   `gorm:"index" json:"reference_id"`
	ProofPath       string    `json:"-"`
	Status          string    `gorm:"default:pending;not null;index" json:"status"`
	RejectionReason *string   `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants
const (
	InstallmentStatusPending  = "pending"
	InstallmentStatusApproved = "approved"
	InstallmentStatusRejected = "rejected"
)

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	Position        int       `json:"position"`
	Amount          float64   `json:"amount"`
	PaidAt          time.Time `json:"paid_at"`
	ReferenceID     *string   `json:"reference_id"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	HasProof        bool      `json:"has_proof"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	return InstallmentResponse{
		Position:        i.Position,
		Amount:          i.Amount,
		PaidAt:          i.PaidAt,
		ReferenceID:     i.ReferenceID,
		Status:          i.Status,
		RejectionReason: i.RejectionReason,
		HasProof:        i.ProofPath != "",
	}
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID             uint                  `json:"id"`
	MemberID       uint                  `json:"member_id"`
	MemberName     string                `json:"member_name,omitempty"`
	Amount         float64               `json:"amount"`
	InterestRate   float64               `json:"interest_rate"`
	InterestAmount float64               `json:"interest_amount"`
	TotalPayable   float64               `json:"total_payable"`
	Duration       int                   `json:"duration"`
	PendingAmount  float64               `json:"pending_amount"`
	Status         string                `json:"status"`
	Reason         string                `json:"reason"`
	Remarks        string                `json:"remarks,omitempty"`
	ApprovedAt     *time.Time            `json:"approved_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
	CreatedAt      time.Time             `json:"created_at"`
	Installments   []InstallmentResponse `json:"installments"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:             l.ID,
		MemberID:       l.MemberID,
		Amount:         l.Amount,
		InterestRate:   l.InterestRate,
		InterestAmount: l.InterestAmount,
		TotalPayable:   l.TotalPayable,
		Duration:       l.Duration,
		PendingAmount:  l.PendingAmount,
		Status:         l.Status,
		Reason:         l.Reason,
		Remarks:        l.Remarks,
		ApprovedAt:     l.ApprovedAt,
		ClosedAt:       l.ClosedAt,
		CreatedAt:      l.CreatedAt,
	}
	if l.Member.ID != 0 {
		resp.MemberName = l.Member.FullName
	}
	for _, inst := range l.Installments {
		resp.Installments = append(resp.Installments, inst.ToResponse())
	}
	return resp
}
