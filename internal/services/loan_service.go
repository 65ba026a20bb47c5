package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/ocr"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/statemachine"
	"github.com/mandalhq/mandal-api/internal/storage"
	"github.com/mandalhq/mandal-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// LoanService handles loan requests, approval and installment repayment
type LoanService struct {
	repo            repository.LoanRepository
	memberRepo      repository.MemberRepository
	fundSvc         *FundService
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	slipSvc         *SlipService
	storage         *storage.LocalStorage
	extractor       ocr.Extractor
	worker          *jobs.Worker
}

// NewLoanService creates a new loan service
func NewLoanService(
	repo repository.LoanRepository,
	memberRepo repository.MemberRepository,
	fundSvc *FundService,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	slipSvc *SlipService,
	store *storage.LocalStorage,
	extractor ocr.Extractor,
	worker *jobs.Worker,
) *LoanService {
	return &LoanService{
		repo:            repo,
		memberRepo:      memberRepo,
		fundSvc:         fundSvc,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		slipSvc:         slipSvc,
		storage:         store,
		extractor:       extractor,
		worker:          worker,
	}
}

// Request creates a pending loan after checking the requested principal
// against the currently available fund. The fund is read fresh; a second
// request between the read and the write is caught again at approval.
func (s *LoanService) Request(ctx context.Context, memberID uint, amount float64, reason string, durationMonths int) (*models.Loan, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, NewNotFoundError("member not found")
	}
	if !member.IsEligible() {
		return nil, NewPolicyError(CodeMemberNotEligible, "member is not approved for loans")
	}
	if amount <= 0 {
		return nil, NewValidationError(CodeInvalidAmount, "amount must be greater than zero")
	}
	if durationMonths <= 0 {
		durationMonths = 12
	}

	available, err := s.fundSvc.AvailableFund(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute available fund: %w", err)
	}
	if amount > available {
		return nil, NewPolicyError(CodeInsufficientFund,
			fmt.Sprintf("requested ₹%.2f but only ₹%.2f is available in the fund", amount, available))
	}

	loan := &models.Loan{
		MemberID:      memberID,
		Amount:        Round2(amount),
		Duration:      durationMonths,
		PendingAmount: Round2(amount),
		Status:        models.LoanStatusPending,
		Reason:        reason,
	}

	if err := s.repo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx,
			"New loan request",
			fmt.Sprintf("%s requested a loan of ₹%.2f", member.FullName, loan.Amount),
			models.NotificationTypeLoanRequested, &loan.ID)
	})

	return loan, nil
}

// Approve activates a pending loan, fixing its interest terms. The fund
// check runs again here because other loans may have been approved since
// the request.
func (s *LoanService) Approve(ctx context.Context, id uint, adminID uint, interestRate float64, durationMonths int) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}

	if interestRate < 0 {
		return nil, NewValidationError(CodeInvalidAmount, "interest rate cannot be negative")
	}
	if durationMonths <= 0 {
		durationMonths = loan.Duration
	}

	fsm := statemachine.NewLoanFSM(loan)
	if err := fsm.Approve(ctx); err != nil {
		return nil, NewStateConflictError(CodeInvalidState,
			fmt.Sprintf("loan cannot be approved in state %s", loan.Status))
	}

	available, err := s.fundSvc.AvailableFund(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute available fund: %w", err)
	}
	if loan.Amount > available {
		return nil, NewPolicyError(CodeInsufficientFund,
			fmt.Sprintf("fund no longer covers this loan, only ₹%.2f available", available))
	}

	now := time.Now()
	loan.InterestRate = interestRate
	loan.Duration = durationMonths
	loan.InterestAmount = SimpleInterest(loan.Amount, interestRate, durationMonths)
	loan.TotalPayable = TotalPayable(loan.Amount, interestRate, durationMonths)
	loan.PendingAmount = loan.TotalPayable
	loan.ApprovedAt = &now

	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	member := loan.Member
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyMember(ctx, loan.MemberID,
			"Loan approved",
			fmt.Sprintf("Your loan of ₹%.2f was approved. Total payable: ₹%.2f", loan.Amount, loan.TotalPayable),
			models.NotificationTypeLoanApproved, &loan.ID); err != nil {
			logger.Error(fmt.Sprintf("failed to notify member %d: %v", loan.MemberID, err))
		}
		return s.emailSvc.SendLoanApproved(ctx, &member, loan)
	})

	s.audit(ctx, adminID, "approve", loan.ID)
	return loan, nil
}

// Reject declines a pending loan with an admin remark. Re-rejecting only
// revises the remark.
func (s *LoanService) Reject(ctx context.Context, id uint, adminID uint, remarks string) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}

	fsm := statemachine.NewLoanFSM(loan)
	if err := fsm.Reject(ctx); err != nil {
		return nil, NewStateConflictError(CodeInvalidState,
			fmt.Sprintf("loan cannot be rejected in state %s", loan.Status))
	}
	loan.Remarks = remarks

	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyMember(ctx, loan.MemberID,
			"Loan rejected",
			fmt.Sprintf("Your loan request was rejected. Reason: %s", remarks),
			models.NotificationTypeLoanRejected, &loan.ID)
	})

	s.audit(ctx, adminID, "reject", loan.ID)
	return loan, nil
}

// PayInstallmentInput carries one repayment submission
type PayInstallmentInput struct {
	Amount float64
	File   multipart.File
	Header *multipart.FileHeader
}

// PayInstallment records a repayment submission against an active loan.
// The stored pending amount after this call is provisional: it deducts
// the submitted amount for display, but the loan only moves toward
// closed when an admin approves the installment.
func (s *LoanService) PayInstallment(ctx context.Context, loanID, memberID uint, input PayInstallmentInput) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}
	if loan.MemberID != memberID {
		return nil, NewNotFoundError("loan not found")
	}
	if !loan.MayPay() {
		return nil, NewStateConflictError(CodeLoanNotPayable,
			fmt.Sprintf("loan is not payable in state %s", loan.Status))
	}
	if input.Amount <= 0 {
		return nil, NewValidationError(CodeInvalidAmount, "amount must be greater than zero")
	}

	// The cap counts unreviewed submissions too, so a member cannot queue
	// repayments beyond what the loan can absorb
	effective := effectivePending(loan)
	if Round2(input.Amount) > effective {
		return nil, NewValidationError(CodeExceedsPending,
			fmt.Sprintf("amount ₹%.2f exceeds the remaining payable ₹%.2f", input.Amount, effective))
	}

	slipPath := ""
	if input.File != nil && input.Header != nil {
		slipPath, _, err = s.slipSvc.ProcessAndStore(input.File, input.Header, "installments")
		if err != nil {
			return nil, NewExternalError(CodeStorageFailure, "failed to store payment slip", err)
		}
	}

	installment := &models.Installment{
		LoanID:    loan.ID,
		Position:  nextPosition(loan),
		Amount:    Round2(input.Amount),
		PaidAt:    time.Now(),
		ProofPath: slipPath,
		Status:    models.InstallmentStatusPending,
	}

	// Reference extraction is best effort; a blurry slip does not block
	// the submission, the admin reviews the image either way
	if slipPath != "" {
		if result, err := s.extractor.Extract(ctx, s.storage.GetFullPath(slipPath)); err == nil && result.ReferenceID != "" {
			installment.ReferenceID = &result.ReferenceID
		} else if err != nil {
			logger.Warn(fmt.Sprintf("reference extraction failed for loan %d: %v", loan.ID, err))
		}
	}

	loan.PendingAmount = ProvisionalBalance(effective, installment.Amount)

	if err := s.repo.AppendInstallment(ctx, loan, installment); err != nil {
		if slipPath != "" {
			s.storage.Delete(slipPath)
		}
		return nil, fmt.Errorf("failed to record installment: %w", err)
	}
	loan.Installments = append(loan.Installments, *installment)

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx,
			"Installment submitted",
			fmt.Sprintf("Repayment of ₹%.2f submitted against loan #%d", installment.Amount, loan.ID),
			models.NotificationTypeInstallmentSubmitted, &loan.ID)
	})

	return loan, nil
}

// ApproveInstallment confirms one submitted repayment. The loan's pending
// amount is re-derived from approved installments alone, and the loan
// closes here, and only here, once nothing remains payable.
func (s *LoanService) ApproveInstallment(ctx context.Context, loanID uint, position int, adminID uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}

	installment := findInstallment(loan, position)
	if installment == nil {
		return nil, NewValidationError(CodeInvalidIndex, fmt.Sprintf("no installment at position %d", position))
	}
	if installment.Status != models.InstallmentStatusPending {
		return nil, NewStateConflictError(CodeInvalidState,
			fmt.Sprintf("installment already %s", installment.Status))
	}

	// Decisions persist the authoritative balance: total payable minus
	// approved installments, ignoring submissions still in review
	installment.Status = models.InstallmentStatusApproved
	loan.PendingAmount = OutstandingBalance(loan)

	closed := false
	if OutstandingBalance(loan) <= 0 && loan.MayClose() {
		fsm := statemachine.NewLoanFSM(loan)
		if err := fsm.Close(ctx); err != nil {
			return nil, fmt.Errorf("failed to close loan: %w", err)
		}
		now := time.Now()
		loan.ClosedAt = &now
		closed = true
	}

	if err := s.repo.SaveInstallmentDecision(ctx, loan, installment); err != nil {
		return nil, fmt.Errorf("failed to save installment decision: %w", err)
	}

	member := loan.Member
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyMember(ctx, loan.MemberID,
			"Installment approved",
			fmt.Sprintf("Your repayment of ₹%.2f was approved. Remaining: ₹%.2f", installment.Amount, loan.PendingAmount),
			models.NotificationTypeInstallmentApproved, &loan.ID); err != nil {
			logger.Error(fmt.Sprintf("failed to notify member %d: %v", loan.MemberID, err))
		}
		if closed {
			if err := s.notificationSvc.NotifyMember(ctx, loan.MemberID,
				"Loan closed",
				fmt.Sprintf("Your loan of ₹%.2f is fully repaid", loan.Amount),
				models.NotificationTypeLoanClosed, &loan.ID); err != nil {
				logger.Error(fmt.Sprintf("failed to notify member %d: %v", loan.MemberID, err))
			}
			return s.emailSvc.SendLoanClosed(ctx, &member, loan)
		}
		return nil
	})

	s.audit(ctx, adminID, "approve_installment", loan.ID)
	return loan, nil
}

// RejectInstallment declines one submitted repayment and restores the
// rejected amount to the loan's pending balance.
func (s *LoanService) RejectInstallment(ctx context.Context, loanID uint, position int, adminID uint, reason string) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}

	installment := findInstallment(loan, position)
	if installment == nil {
		return nil, NewValidationError(CodeInvalidIndex, fmt.Sprintf("no installment at position %d", position))
	}
	if installment.Status != models.InstallmentStatusPending {
		return nil, NewStateConflictError(CodeInvalidState,
			fmt.Sprintf("installment already %s", installment.Status))
	}

	installment.Status = models.InstallmentStatusRejected
	if reason != "" {
		installment.RejectionReason = &reason
	}
	loan.PendingAmount = OutstandingBalance(loan)

	if err := s.repo.SaveInstallmentDecision(ctx, loan, installment); err != nil {
		return nil, fmt.Errorf("failed to save installment decision: %w", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyMember(ctx, loan.MemberID,
			"Installment rejected",
			fmt.Sprintf("Your repayment of ₹%.2f was rejected. Reason: %s", installment.Amount, reason),
			models.NotificationTypeInstallmentRejected, &loan.ID)
	})

	s.audit(ctx, adminID, "reject_installment", loan.ID)
	return loan, nil
}

// FindByID loads one loan with its installments
func (s *LoanService) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("loan not found")
	}
	return loan, nil
}

// FindByMember lists a member's own loans
func (s *LoanService) FindByMember(ctx context.Context, memberID uint) ([]models.Loan, error) {
	return s.repo.FindByMember(ctx, memberID)
}

// List returns loans for the admin review queue
func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *LoanService) audit(ctx context.Context, adminID uint, action string, loanID uint) {
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.auditSvc.Log(ctx, adminID, action, "loan", loanID, "", "", "")
	})
}

// effectivePending is what the member still owes counting both approved
// installments and submissions awaiting review. Never negative. Only caps
// new submissions; persisted balances come from OutstandingBalance.
func effectivePending(loan *models.Loan) float64 {
	remaining := decimal.NewFromFloat(loan.TotalPayable)
	for _, inst := range loan.Installments {
		if inst.Status == models.InstallmentStatusApproved || inst.Status == models.InstallmentStatusPending {
			remaining = remaining.Sub(decimal.NewFromFloat(inst.Amount))
		}
	}
	remaining = remaining.Round(2)
	if remaining.IsNegative() {
		return 0
	}
	f, _ := remaining.Float64()
	return f
}

func nextPosition(loan *models.Loan) int {
	max := 0
	for _, inst := range loan.Installments {
		if inst.Position > max {
			max = inst.Position
		}
	}
	return max + 1
}

func findInstallment(loan *models.Loan, position int) *models.Installment {
	for i := range loan.Installments {
		if loan.Installments[i].Position == position {
			return &loan.Installments[i]
		}
	}
	return nil
}
