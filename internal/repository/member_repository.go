package repository

import (
	"context"

	"github.com/mandalhq/mandal-api/internal/models"

	"gorm.io/gorm"
)

// MemberRepository defines data access for members. Member records are
// owned by the identity service; the ledger only reads them.
type MemberRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Member, error)
	FindAdmins(ctx context.Context) ([]models.Member, error)
	List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error)
	FindEligibleWithoutContribution(ctx context.Context, month string) ([]models.Member, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// FindAdmins returns the full set of admin members. Notification fan-out
// addresses all of them, never a single "the admin" record.
func (r *memberRepository) FindAdmins(ctx context.Context) ([]models.Member, error) {
	var admins []models.Member
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ? AND discarded_at IS NULL", models.RoleAdmin, true).
		Find(&admins).Error
	return admins, err
}

func (r *memberRepository) List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Member{}).Where("discarded_at IS NULL")

	if status, ok := query.Filters["approval_status"]; ok && status != "" {
		db = db.Where("approval_status = ?", status)
	}
	if query.Search != "" {
		term := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR email ILIKE ?", term, term)
	}

	db.Count(&total)
	db = db.Order("created_at DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&members).Error
	return members, total, err
}

// FindEligibleWithoutContribution returns approved, KYC-verified members
// who have not yet submitted a contribution for the given month. Used by
// the monthly reminder job.
func (r *memberRepository) FindEligibleWithoutContribution(ctx context.Context, month string) ([]models.Member, error) {
	var members []models.Member
	sub := r.db.Model(&models.Contribution{}).
		Select("member_id").
		Where("month = ?", month)

	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ? AND discarded_at IS NULL", models.RoleMember, true).
		Where("approval_status = ? AND kyc_status = ?", models.ApprovalStatusApproved, models.KYCStatusVerified).
		Where("id NOT IN (?)", sub).
		Find(&members).Error
	return members, err
}

// ListQuery contains common pagination and filtering parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
