package repository

import (
	"context"

	"github.com/mandalhq/mandal-api/internal/models"

	"gorm.io/gorm"
)

// MonthlyTotal is one month's approved contribution volume
type MonthlyTotal struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
	Count  int64   `json:"count"`
}

// LoanBookStats summarizes the loan book for the analytics overview
type LoanBookStats struct {
	PendingCount  int64   `json:"pending_count"`
	ActiveCount   int64   `json:"active_count"`
	ClosedCount   int64   `json:"closed_count"`
	TotalInterest float64 `json:"total_interest"`
}

// FundRepository exposes the aggregate reads behind the fund ledger. The
// sums are always executed against the live tables; nothing here caches.
type FundRepository interface {
	TotalContributed(ctx context.Context) (float64, error)
	TotalLoanedOut(ctx context.Context) (float64, error)
	MonthlyContributionTotals(ctx context.Context, limit int) ([]MonthlyTotal, error)
	GetLoanBookStats(ctx context.Context) (*LoanBookStats, error)
}

type fundRepository struct {
	db *gorm.DB
}

// NewFundRepository creates a new fund repository
func NewFundRepository(db *gorm.DB) FundRepository {
	return &fundRepository{db: db}
}

// TotalContributed sums the amounts of all approved (done) contributions
func (r *fundRepository) TotalContributed(ctx context.Context) (float64, error) {
	var result struct {
		Total float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status = ?", models.ContributionStatusDone).
		Scan(&result).Error
	return result.Total, err
}

// TotalLoanedOut sums outstanding loan principal (approved or active).
// Principal, not total payable: interest owed back to the pool is not
// money that ever left it.
func (r *fundRepository) TotalLoanedOut(ctx context.Context) (float64, error) {
	var result struct {
		Total float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status IN ?", []string{models.LoanStatusApproved, models.LoanStatusActive}).
		Scan(&result).Error
	return result.Total, err
}

func (r *fundRepository) MonthlyContributionTotals(ctx context.Context, limit int) ([]MonthlyTotal, error) {
	var totals []MonthlyTotal
	err := r.db.WithContext(ctx).
		Model(&models.Contribution{}).
		Select("month, COALESCE(SUM(amount), 0) as amount, COUNT(*) as count").
		Where("status = ?", models.ContributionStatusDone).
		Group("month").
		Order("month DESC").
		Limit(limit).
		Scan(&totals).Error
	return totals, err
}

func (r *fundRepository) GetLoanBookStats(ctx context.Context) (*LoanBookStats, error) {
	stats := &LoanBookStats{}

	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rr := range rows {
		switch rr.Status {
		case models.LoanStatusPending:
			stats.PendingCount = rr.Count
		case models.LoanStatusActive, models.LoanStatusApproved:
			stats.ActiveCount += rr.Count
		case models.LoanStatusClosed:
			stats.ClosedCount = rr.Count
		}
	}

	var interest struct {
		Total float64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("COALESCE(SUM(interest_amount), 0) as total").
		Where("status IN ?", []string{models.LoanStatusActive, models.LoanStatusClosed}).
		Scan(&interest).Error; err != nil {
		return nil, err
	}
	stats.TotalInterest = interest.Total

	return stats, nil
}
