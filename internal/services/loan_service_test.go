package services

import (
	"context"
	"testing"
	"time"

	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/storage"

	"github.com/stretchr/testify/assert"
)

func newLoanServiceForTest(
	t *testing.T,
	loanRepo repository.LoanRepository,
	memberRepo repository.MemberRepository,
	fundRepo repository.FundRepository,
	notifRepo repository.NotificationRepository,
) (*LoanService, *jobs.Worker) {
	t.Helper()
	worker := jobs.NewWorker(0)
	store, err := storage.NewLocalStorage(t.TempDir())
	assert.NoError(t, err)

	fundSvc := NewFundService(fundRepo)
	notifSvc := NewNotificationService(notifRepo, memberRepo)
	svc := NewLoanService(loanRepo, memberRepo, fundSvc, notifSvc, nil, nil, NewSlipService(store), store, &mockExtractor{}, worker)
	return svc, worker
}

func activeLoan(installments ...models.Installment) *models.Loan {
	loan := &models.Loan{
		ID:             1,
		MemberID:       1,
		Amount:         6000,
		InterestRate:   12,
		InterestAmount: 720,
		TotalPayable:   6720,
		Duration:       12,
		PendingAmount:  6720,
		Status:         models.LoanStatusActive,
		Member:         *eligibleMember(1),
		Installments:   installments,
	}
	return loan
}

func TestRequestLoanWithinAvailableFund(t *testing.T) {
	var created *models.Loan
	loanRepo := &mockLoanRepository{
		mockCreate: func(ctx context.Context, loan *models.Loan) error {
			loan.ID = 1
			created = loan
			return nil
		},
	}
	fundRepo := &mockFundRepository{contributed: 10000, loanedOut: 3000}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, fundRepo, &mockNotificationRepository{})
	defer worker.Shutdown()

	loan, err := svc.Request(context.Background(), 1, 6000, "medical expenses", 0)

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.Equal(t, 6000.0, loan.Amount)
	assert.Equal(t, 6000.0, loan.PendingAmount)
	assert.Equal(t, 12, loan.Duration)
	assert.Equal(t, "medical expenses", loan.Reason)
}

func TestRequestLoanExceedingFund(t *testing.T) {
	fundRepo := &mockFundRepository{contributed: 10000, loanedOut: 3000}
	svc, worker := newLoanServiceForTest(t, &mockLoanRepository{}, &mockMemberRepository{}, fundRepo, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.Request(context.Background(), 1, 8000, "", 0)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindPolicy, svcErr.Kind)
	assert.Equal(t, CodeInsufficientFund, svcErr.Code)
	assert.Contains(t, svcErr.Message, "7000.00")
}

func TestRequestLoanCustomDuration(t *testing.T) {
	loanRepo := &mockLoanRepository{}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{contributed: 10000}, &mockNotificationRepository{})
	defer worker.Shutdown()

	loan, err := svc.Request(context.Background(), 1, 3000, "", 6)
	assert.NoError(t, err)
	assert.Equal(t, 6, loan.Duration)

	// unspecified duration falls back to twelve months
	loan, err = svc.Request(context.Background(), 1, 3000, "", 0)
	assert.NoError(t, err)
	assert.Equal(t, 12, loan.Duration)
}

func TestRequestLoanCountsOutstandingPrincipal(t *testing.T) {
	// 10000 contributed minus 4000 still out leaves 6000 to lend
	fundRepo := &mockFundRepository{contributed: 10000, loanedOut: 4000}
	svc, worker := newLoanServiceForTest(t, &mockLoanRepository{}, &mockMemberRepository{}, fundRepo, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.Request(context.Background(), 1, 6500, "", 0)
	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, CodeInsufficientFund, svcErr.Code)

	_, err = svc.Request(context.Background(), 1, 5500, "", 0)
	assert.NoError(t, err)
}

func TestRequestLoanIneligibleMember(t *testing.T) {
	memberRepo := &mockMemberRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Member, error) {
			member := eligibleMember(id)
			member.KYCStatus = models.KYCStatusPending
			return member, nil
		},
	}
	svc, worker := newLoanServiceForTest(t, &mockLoanRepository{}, memberRepo, &mockFundRepository{contributed: 10000}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.Request(context.Background(), 1, 1000, "", 0)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, CodeMemberNotEligible, svcErr.Code)
}

func TestRequestLoanNotifiesAdmins(t *testing.T) {
	memberRepo := &mockMemberRepository{
		mockFindAdmins: func(ctx context.Context) ([]models.Member, error) {
			return []models.Member{
				{ID: 98, Role: models.RoleAdmin, Active: true},
				{ID: 99, Role: models.RoleAdmin, Active: true},
			}, nil
		},
	}
	notifRepo := &mockNotificationRepository{}
	svc, worker := newLoanServiceForTest(t, &mockLoanRepository{}, memberRepo, &mockFundRepository{contributed: 10000}, notifRepo)
	defer worker.Shutdown()

	_, err := svc.Request(context.Background(), 1, 1000, "", 0)
	assert.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	created := notifRepo.Created()
	assert.Len(t, created, 2)
	assert.Equal(t, models.NotificationTypeLoanRequested, *created[0].NotificationType)
}

func TestApproveLoanFixesInterestTerms(t *testing.T) {
	loan := &models.Loan{
		ID:            1,
		MemberID:      1,
		Amount:        6000,
		Duration:      12,
		PendingAmount: 6000,
		Status:        models.LoanStatusPending,
		Member:        *eligibleMember(1),
	}
	var updated *models.Loan
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
		mockUpdate: func(ctx context.Context, l *models.Loan) error {
			updated = l
			return nil
		},
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{contributed: 10000}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.Approve(context.Background(), 1, 99, 12, 12)

	assert.NoError(t, err)
	assert.NotNil(t, updated)
	assert.Equal(t, models.LoanStatusActive, result.Status)
	assert.Equal(t, 12.0, result.InterestRate)
	assert.Equal(t, 720.0, result.InterestAmount)
	assert.Equal(t, 6720.0, result.TotalPayable)
	assert.Equal(t, 6720.0, result.PendingAmount)
	assert.NotNil(t, result.ApprovedAt)

	time.Sleep(100 * time.Millisecond)
}

func TestApproveLoanWhenFundShrank(t *testing.T) {
	loan := &models.Loan{ID: 1, MemberID: 1, Amount: 6000, Duration: 12, PendingAmount: 6000, Status: models.LoanStatusPending}
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	// other approvals since the request left only 5000
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{contributed: 5000}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.Approve(context.Background(), 1, 99, 12, 12)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindPolicy, svcErr.Kind)
	assert.Equal(t, CodeInsufficientFund, svcErr.Code)
}

func TestApproveLoanAlreadyActive(t *testing.T) {
	loan := activeLoan()
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{contributed: 10000}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.Approve(context.Background(), 1, 99, 12, 12)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindStateConflict, svcErr.Kind)
	assert.Equal(t, CodeInvalidState, svcErr.Code)
}

func TestRejectLoanRevisesRemarks(t *testing.T) {
	loan := &models.Loan{ID: 1, MemberID: 1, Amount: 6000, PendingAmount: 6000, Status: models.LoanStatusPending}
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.Reject(context.Background(), 1, 99, "income proof missing")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusRejected, result.Status)
	assert.Equal(t, "income proof missing", result.Remarks)

	// a second reject only revises the remark
	result, err = svc.Reject(context.Background(), 1, 99, "income proof expired")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusRejected, result.Status)
	assert.Equal(t, "income proof expired", result.Remarks)
}

func TestPayInstallmentStoresProvisionalBalance(t *testing.T) {
	loan := activeLoan()
	var appended *models.Installment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
		mockAppendInstallment: func(ctx context.Context, l *models.Loan, inst *models.Installment) error {
			inst.ID = 1
			appended = inst
			return nil
		},
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.PayInstallment(context.Background(), 1, 1, PayInstallmentInput{Amount: 2000})

	assert.NoError(t, err)
	assert.NotNil(t, appended)
	assert.Equal(t, 1, appended.Position)
	assert.Equal(t, 2000.0, appended.Amount)
	assert.Equal(t, models.InstallmentStatusPending, appended.Status)

	// balance drops for display but the loan stays active until review
	assert.Equal(t, 4720.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)
	assert.Len(t, result.Installments, 1)
}

func TestPayInstallmentRejectsOverpayment(t *testing.T) {
	// 2000 approved plus 1000 awaiting review leaves 3720 payable
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusApproved},
		models.Installment{ID: 2, LoanID: 1, Position: 2, Amount: 1000, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 3720
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.PayInstallment(context.Background(), 1, 1, PayInstallmentInput{Amount: 4000})

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, svcErr.Kind)
	assert.Equal(t, CodeExceedsPending, svcErr.Code)
	assert.Contains(t, svcErr.Message, "3720.00")
}

func TestPayInstallmentOnPendingLoan(t *testing.T) {
	loan := &models.Loan{ID: 1, MemberID: 1, Amount: 6000, PendingAmount: 6000, Status: models.LoanStatusPending}
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.PayInstallment(context.Background(), 1, 1, PayInstallmentInput{Amount: 500})

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindStateConflict, svcErr.Kind)
	assert.Equal(t, CodeLoanNotPayable, svcErr.Code)
}

func TestPayInstallmentForeignLoanLooksNotFound(t *testing.T) {
	loan := activeLoan()
	loan.MemberID = 2
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.PayInstallment(context.Background(), 1, 1, PayInstallmentInput{Amount: 500})

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, svcErr.Kind)
}

func TestApproveInstallmentKeepsLoanOpen(t *testing.T) {
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 4720
	var saved *models.Installment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
		mockSaveInstallmentDecision: func(ctx context.Context, l *models.Loan, inst *models.Installment) error {
			saved = inst
			return nil
		},
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.ApproveInstallment(context.Background(), 1, 1, 99)

	assert.NoError(t, err)
	assert.NotNil(t, saved)
	assert.Equal(t, models.InstallmentStatusApproved, saved.Status)
	assert.Equal(t, 4720.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)
	assert.Nil(t, result.ClosedAt)

	time.Sleep(100 * time.Millisecond)
}

func TestApproveFinalInstallmentClosesLoan(t *testing.T) {
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusApproved},
		models.Installment{ID: 2, LoanID: 1, Position: 2, Amount: 4720, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 0
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.ApproveInstallment(context.Background(), 1, 2, 99)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusClosed, result.Status)
	assert.NotNil(t, result.ClosedAt)

	time.Sleep(100 * time.Millisecond)
}

func TestApproveInstallmentIgnoresOtherPendingSubmissions(t *testing.T) {
	// a second submission in review must not shrink the stored balance
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusPending},
		models.Installment{ID: 2, LoanID: 1, Position: 2, Amount: 1000, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 3720
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.ApproveInstallment(context.Background(), 1, 1, 99)

	assert.NoError(t, err)
	assert.Equal(t, 4720.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)

	time.Sleep(100 * time.Millisecond)
}

func TestRejectInstallmentIgnoresOtherPendingSubmissions(t *testing.T) {
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusPending},
		models.Installment{ID: 2, LoanID: 1, Position: 2, Amount: 1000, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 3720
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.RejectInstallment(context.Background(), 1, 1, 99, "wrong amount")

	assert.NoError(t, err)
	assert.Equal(t, 6720.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)
}

func TestApproveInstallmentAlreadyDecided(t *testing.T) {
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusApproved},
	)
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.ApproveInstallment(context.Background(), 1, 1, 99)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindStateConflict, svcErr.Kind)
	assert.Equal(t, CodeInvalidState, svcErr.Code)
}

func TestApproveInstallmentUnknownPosition(t *testing.T) {
	loan := activeLoan()
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	_, err := svc.ApproveInstallment(context.Background(), 1, 7, 99)

	svcErr, ok := AsServiceError(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, svcErr.Kind)
	assert.Equal(t, CodeInvalidIndex, svcErr.Code)
}

func TestRejectInstallmentRestoresBalance(t *testing.T) {
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusPending},
	)
	loan.PendingAmount = 4720
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.RejectInstallment(context.Background(), 1, 1, 99, "amount does not match the slip")

	assert.NoError(t, err)
	assert.Equal(t, 6720.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)
	assert.Equal(t, models.InstallmentStatusRejected, result.Installments[0].Status)
	assert.Equal(t, "amount does not match the slip", *result.Installments[0].RejectionReason)
}

func TestPayInstallmentAfterRejectionUsesFullBalance(t *testing.T) {
	// a rejected submission frees its amount for resubmission
	loan := activeLoan(
		models.Installment{ID: 1, LoanID: 1, Position: 1, Amount: 2000, Status: models.InstallmentStatusRejected},
	)
	var appended *models.Installment
	loanRepo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) { return loan, nil },
		mockAppendInstallment: func(ctx context.Context, l *models.Loan, inst *models.Installment) error {
			appended = inst
			return nil
		},
	}
	svc, worker := newLoanServiceForTest(t, loanRepo, &mockMemberRepository{}, &mockFundRepository{}, &mockNotificationRepository{})
	defer worker.Shutdown()

	result, err := svc.PayInstallment(context.Background(), 1, 1, PayInstallmentInput{Amount: 6720})

	assert.NoError(t, err)
	assert.Equal(t, 2, appended.Position)
	assert.Equal(t, 0.0, result.PendingAmount)
	assert.Equal(t, models.LoanStatusActive, result.Status)
}
