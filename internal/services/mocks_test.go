package services

import (
	"context"
	"sync"

	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/ocr"
	"github.com/mandalhq/mandal-api/internal/repository"

	"gorm.io/gorm"
)

// The mocks embed the repository interfaces so each test overrides only
// the methods it cares about. Calling an un-mocked method without a
// default below panics, which is the test telling us it needs a mock.

func eligibleMember(id uint) *models.Member {
	return &models.Member{
		ID:             id,
		Email:          "member@example.com",
		FullName:       "Asha Patel",
		Role:           models.RoleMember,
		ApprovalStatus: models.ApprovalStatusApproved,
		KYCStatus:      models.KYCStatusVerified,
		Active:         true,
	}
}

type mockMemberRepository struct {
	repository.MemberRepository
	mockFindByID   func(ctx context.Context, id uint) (*models.Member, error)
	mockFindAdmins func(ctx context.Context) ([]models.Member, error)
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return eligibleMember(id), nil
}

func (m *mockMemberRepository) FindAdmins(ctx context.Context) ([]models.Member, error) {
	if m.mockFindAdmins != nil {
		return m.mockFindAdmins(ctx)
	}
	return []models.Member{
		{ID: 99, Email: "admin@example.com", FullName: "Admin", Role: models.RoleAdmin, Active: true},
	}, nil
}

type mockNotificationRepository struct {
	repository.NotificationRepository
	mu      sync.Mutex
	created []models.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *notification)
	return nil
}

func (m *mockNotificationRepository) Created() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Notification, len(m.created))
	copy(out, m.created)
	return out
}

type mockFundRepository struct {
	repository.FundRepository
	contributed float64
	loanedOut   float64
}

func (m *mockFundRepository) TotalContributed(ctx context.Context) (float64, error) {
	return m.contributed, nil
}

func (m *mockFundRepository) TotalLoanedOut(ctx context.Context) (float64, error) {
	return m.loanedOut, nil
}

type mockLoanRepository struct {
	repository.LoanRepository
	mockCreate                  func(ctx context.Context, loan *models.Loan) error
	mockFindByID                func(ctx context.Context, id uint) (*models.Loan, error)
	mockUpdate                  func(ctx context.Context, loan *models.Loan) error
	mockAppendInstallment       func(ctx context.Context, loan *models.Loan, installment *models.Installment) error
	mockSaveInstallmentDecision func(ctx context.Context, loan *models.Loan, installment *models.Installment) error
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, loan)
	}
	loan.ID = 1
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, loan)
	}
	return nil
}

func (m *mockLoanRepository) AppendInstallment(ctx context.Context, loan *models.Loan, installment *models.Installment) error {
	if m.mockAppendInstallment != nil {
		return m.mockAppendInstallment(ctx, loan, installment)
	}
	installment.ID = uint(installment.Position)
	return nil
}

func (m *mockLoanRepository) SaveInstallmentDecision(ctx context.Context, loan *models.Loan, installment *models.Installment) error {
	if m.mockSaveInstallmentDecision != nil {
		return m.mockSaveInstallmentDecision(ctx, loan, installment)
	}
	return nil
}

type mockContributionRepository struct {
	repository.ContributionRepository
	mockCreate                func(ctx context.Context, contribution *models.Contribution) error
	mockFindByID              func(ctx context.Context, id uint) (*models.Contribution, error)
	mockUpdate                func(ctx context.Context, contribution *models.Contribution) error
	mockExistsForMonth        func(ctx context.Context, memberID uint, month string) (bool, error)
	mockExistsByTransactionID func(ctx context.Context, transactionID string) (bool, error)
}

func (m *mockContributionRepository) Create(ctx context.Context, contribution *models.Contribution) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, contribution)
	}
	contribution.ID = 1
	return nil
}

func (m *mockContributionRepository) FindByID(ctx context.Context, id uint) (*models.Contribution, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContributionRepository) Update(ctx context.Context, contribution *models.Contribution) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, contribution)
	}
	return nil
}

func (m *mockContributionRepository) ExistsForMonth(ctx context.Context, memberID uint, month string) (bool, error) {
	if m.mockExistsForMonth != nil {
		return m.mockExistsForMonth(ctx, memberID, month)
	}
	return false, nil
}

func (m *mockContributionRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	if m.mockExistsByTransactionID != nil {
		return m.mockExistsByTransactionID(ctx, transactionID)
	}
	return false, nil
}

type mockExtractor struct {
	mockExtract func(ctx context.Context, imagePath string) (*ocr.Result, error)
}

func (m *mockExtractor) Extract(ctx context.Context, imagePath string) (*ocr.Result, error) {
	if m.mockExtract != nil {
		return m.mockExtract(ctx, imagePath)
	}
	return &ocr.Result{}, nil
}
