package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/mandalhq/mandal-api/internal/models"

	"gorm.io/gorm"
)

// ContributionRepository defines data access for contributions
type ContributionRepository interface {
	Create(ctx context.Context, contribution *models.Contribution) error
	FindByID(ctx context.Context, id uint) (*models.Contribution, error)
	Update(ctx context.Context, contribution *models.Contribution) error
	ExistsForMonth(ctx context.Context, memberID uint, month string) (bool, error)
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	FindByMember(ctx context.Context, memberID uint) ([]models.Contribution, error)
	FindDoneByMonth(ctx context.Context, month string) ([]models.Contribution, error)
	List(ctx context.Context, query *ListQuery) ([]models.Contribution, int64, error)
}

type contributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *gorm.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) Create(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Create(contribution).Error
}

func (r *contributionRepository) FindByID(ctx context.Context, id uint) (*models.Contribution, error) {
	var contribution models.Contribution
	err := r.db.WithContext(ctx).Preload("Member").First(&contribution, id).Error
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (r *contributionRepository) Update(ctx context.Context, contribution *models.Contribution) error {
	return r.db.WithContext(ctx).Save(contribution).Error
}

func (r *contributionRepository) ExistsForMonth(ctx context.Context, memberID uint, month string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contribution{}).
		Where("member_id = ? AND month = ?", memberID, month).
		Count(&count).Error
	return count > 0, err
}

// ExistsByTransactionID checks the global OCR transaction id dedup. The
// unique index on transaction_id is the authoritative guard; this check
// exists to fail fast with a friendly error before the upload.
func (r *contributionRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contribution{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count > 0, err
}

func (r *contributionRepository) FindByMember(ctx context.Context, memberID uint) ([]models.Contribution, error) {
	var contributions []models.Contribution
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("month DESC").
		Find(&contributions).Error
	return contributions, err
}

func (r *contributionRepository) FindDoneByMonth(ctx context.Context, month string) ([]models.Contribution, error) {
	var contributions []models.Contribution
	err := r.db.WithContext(ctx).Preload("Member").
		Where("month = ? AND status = ?", month, models.ContributionStatusDone).
		Order("payment_date ASC").
		Find(&contributions).Error
	return contributions, err
}

func (r *contributionRepository) List(ctx context.Context, query *ListQuery) ([]models.Contribution, int64, error) {
	var contributions []models.Contribution
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Contribution{}).Preload("Member")

	if status, ok := query.Filters["status"]; ok && status != "" {
		db = db.Where("contributions.status = ?", status)
	}
	if month, ok := query.Filters["month"]; ok && month != "" {
		db = db.Where("contributions.month = ?", month)
	}
	if query.Search != "" {
		term := "%" + strings.TrimSpace(query.Search) + "%"
		db = db.Joins("JOIN members ON members.id = contributions.member_id").
			Where("members.full_name ILIKE ? OR members.email ILIKE ?", term, term)
	}

	db.Count(&total)

	sortBy := "created_at"
	if query.SortBy != "" {
		switch query.SortBy {
		case "month", "amount", "status", "created_at":
			sortBy = query.SortBy
		}
	}
	dir := "DESC"
	if strings.EqualFold(query.SortDir, "asc") {
		dir = "ASC"
	}
	db = db.Order("contributions." + sortBy + " " + dir)

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&contributions).Error
	return contributions, total, err
}

// IsDuplicateKey reports whether err is the translated unique-violation
// error from the driver.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
