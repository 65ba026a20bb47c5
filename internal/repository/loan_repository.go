package repository

import (
	"context"
	"strings"

	"github.com/mandalhq/mandal-api/internal/models"

	"gorm.io/gorm"
)

// LoanRepository defines data access for loans and their installments.
// Installment mutations always travel with the parent loan in a single
// database transaction so two admins acting on the same loan cannot lose
// each other's updates.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	AppendInstallment(ctx context.Context, loan *models.Loan, installment *models.Installment) error
	SaveInstallmentDecision(ctx context.Context, loan *models.Loan, installment *models.Installment) error
	FindByMember(ctx context.Context, memberID uint) ([]models.Loan, error)
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// FindByID loads a loan with its installments in position order
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit("Installments", "Member").Save(loan).Error
}

// AppendInstallment inserts the new installment and persists the loan's
// provisional pending amount as one atomic unit.
func (r *loanRepository) AppendInstallment(ctx context.Context, loan *models.Loan, installment *models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(installment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Loan{}).
			Where("id = ?", loan.ID).
			Update("pending_amount", loan.PendingAmount).Error
	})
}

// SaveInstallmentDecision persists an approve/reject decision on one
// installment together with the recomputed loan fields.
func (r *loanRepository) SaveInstallmentDecision(ctx context.Context, loan *models.Loan, installment *models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Installment{}).
			Where("id = ?", installment.ID).
			Updates(map[string]interface{}{
				"status":           installment.Status,
				"rejection_reason": installment.RejectionReason,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Loan{}).
			Where("id = ?", loan.ID).
			Updates(map[string]interface{}{
				"pending_amount": loan.PendingAmount,
				"status":         loan.Status,
				"closed_at":      loan.ClosedAt,
			}).Error
	})
}

func (r *loanRepository) FindByMember(ctx context.Context, memberID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("member_id = ?", memberID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{}).Preload("Member")

	if status, ok := query.Filters["status"]; ok && status != "" {
		db = db.Where("loans.status = ?", status)
	}
	if query.Search != "" {
		term := "%" + strings.TrimSpace(query.Search) + "%"
		db = db.Joins("JOIN members ON members.id = loans.member_id").
			Where("members.full_name ILIKE ? OR members.email ILIKE ?", term, term)
	}

	db.Count(&total)
	db = db.Order("loans.created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&loans).Error
	return loans, total, err
}
