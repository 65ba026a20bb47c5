package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/mandalhq/mandal-api/internal/jobs"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/ocr"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/statemachine"
	"github.com/mandalhq/mandal-api/internal/storage"
	"github.com/mandalhq/mandal-api/pkg/logger"
)

// ContributionService handles monthly contribution submission and review
type ContributionService struct {
	repo            repository.ContributionRepository
	memberRepo      repository.MemberRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	slipSvc         *SlipService
	storage         *storage.LocalStorage
	extractor       ocr.Extractor
	worker          *jobs.Worker
}

// NewContributionService creates a new contribution service
func NewContributionService(
	repo repository.ContributionRepository,
	memberRepo repository.MemberRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	slipSvc *SlipService,
	store *storage.LocalStorage,
	extractor ocr.Extractor,
	worker *jobs.Worker,
) *ContributionService {
	return &ContributionService{
		repo:            repo,
		memberRepo:      memberRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		slipSvc:         slipSvc,
		storage:         store,
		extractor:       extractor,
		worker:          worker,
	}
}

// SubmitContributionInput carries a member's contribution claim
type SubmitContributionInput struct {
	Month    string
	Amount   float64
	Provider string
	File     multipart.File
	Header   *multipart.FileHeader
}

// Submit runs the full contribution intake pipeline: eligibility gate,
// claim validation, slip storage, OCR extraction and duplicate checks.
// The record is only created once every check passes; an illegible or
// mismatched slip never produces a pending contribution.
func (s *ContributionService) Submit(ctx context.Context, memberID uint, input SubmitContributionInput) (*models.Contribution, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, NewNotFoundError("member not found")
	}
	if !member.IsEligible() {
		return nil, NewPolicyError(CodeMemberNotEligible, "member is not approved for contributions")
	}

	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	if !models.ValidProvider(provider) {
		return nil, NewValidationError(CodeInvalidProvider, fmt.Sprintf("unsupported payment provider: %s", input.Provider))
	}
	if _, err := time.Parse("2006-01", input.Month); err != nil {
		return nil, NewValidationError(CodeInvalidMonth, "month must be in YYYY-MM format")
	}
	if input.Amount <= 0 {
		return nil, NewValidationError(CodeInvalidAmount, "amount must be greater than zero")
	}

	exists, err := s.repo.ExistsForMonth(ctx, memberID, input.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing contributions: %w", err)
	}
	if exists {
		return nil, NewDuplicateError(CodeDuplicateMonth, fmt.Sprintf("a contribution for %s already exists", input.Month))
	}

	slipPath, _, err := s.slipSvc.ProcessAndStore(input.File, input.Header, "contributions")
	if err != nil {
		return nil, NewExternalError(CodeStorageFailure, "failed to store payment slip", err)
	}

	result, err := s.extractor.Extract(ctx, s.storage.GetFullPath(slipPath))
	if err != nil {
		s.storage.Delete(slipPath)
		return nil, NewExternalError(CodeOCRUnavailable, "slip verification is temporarily unavailable", err)
	}

	// No transaction id means the slip cannot be verified or deduplicated
	if result.TransactionID == "" {
		s.storage.Delete(slipPath)
		return nil, NewValidationError(CodeOCRIllegible, "could not read a transaction id from the slip, upload a clearer screenshot")
	}
	if result.Provider == "" {
		s.storage.Delete(slipPath)
		return nil, NewValidationError(CodeProviderUndetected, "could not identify the payment app from the slip")
	}
	if result.Provider != provider {
		s.storage.Delete(slipPath)
		return nil, NewValidationError(CodeProviderMismatch,
			fmt.Sprintf("slip appears to be from %s, not %s", result.Provider, provider))
	}

	dupTxn, err := s.repo.ExistsByTransactionID(ctx, result.TransactionID)
	if err != nil {
		s.storage.Delete(slipPath)
		return nil, fmt.Errorf("failed to check transaction id: %w", err)
	}
	if dupTxn {
		s.storage.Delete(slipPath)
		return nil, NewDuplicateError(CodeDuplicateTransaction, "this payment slip has already been submitted")
	}

	contribution := &models.Contribution{
		MemberID:      memberID,
		Month:         input.Month,
		Amount:        Round2(input.Amount),
		Provider:      provider,
		ProofPath:     slipPath,
		OCRStatus:     models.OCRStatusSuccess,
		TransactionID: &result.TransactionID,
		OCRAmount:     result.Amount,
		RawText:       result.RawText,
		Status:        models.ContributionStatusPending,
	}
	if result.Date != "" {
		contribution.OCRDate = &result.Date
	}
	if result.Time != "" {
		contribution.OCRTime = &result.Time
	}
	if result.PayeeName != "" {
		contribution.PayeeName = &result.PayeeName
	}
	if result.Provider != "" {
		contribution.DetectedProvider = &result.Provider
	}

	if err := s.repo.Create(ctx, contribution); err != nil {
		s.storage.Delete(slipPath)
		// The unique indexes close the race the pre-checks left open
		if repository.IsDuplicateKey(err) {
			again, checkErr := s.repo.ExistsForMonth(ctx, memberID, input.Month)
			if checkErr == nil && again {
				return nil, NewDuplicateError(CodeDuplicateMonth, fmt.Sprintf("a contribution for %s already exists", input.Month))
			}
			return nil, NewDuplicateError(CodeDuplicateTransaction, "this payment slip has already been submitted")
		}
		return nil, fmt.Errorf("failed to create contribution: %w", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx,
			"New contribution submitted",
			fmt.Sprintf("%s submitted ₹%.2f for %s", member.FullName, contribution.Amount, contribution.Month),
			models.NotificationTypeContributionSubmitted, &contribution.ID)
	})

	return contribution, nil
}

// Approve marks a pending contribution as done. The payment date is taken
// from the OCR date when it parses, otherwise the approval time.
func (s *ContributionService) Approve(ctx context.Context, id uint, adminID uint) (*models.Contribution, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("contribution not found")
	}

	fsm := statemachine.NewContributionFSM(contribution)
	if err := fsm.Approve(ctx); err != nil {
		return nil, NewStateConflictError(CodeInvalidState,
			fmt.Sprintf("contribution cannot be approved in state %s", contribution.Status))
	}

	paymentDate := resolvePaymentDate(contribution.OCRDate)
	contribution.PaymentDate = &paymentDate

	if err := s.repo.Update(ctx, contribution); err != nil {
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}

	member := contribution.Member
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyMember(ctx, contribution.MemberID,
			"Contribution approved",
			fmt.Sprintf("Your contribution of ₹%.2f for %s has been approved", contribution.Amount, contribution.Month),
			models.NotificationTypeContributionApproved, &contribution.ID); err != nil {
			logger.Error(fmt.Sprintf("failed to notify member %d: %v", contribution.MemberID, err))
		}
		return s.emailSvc.SendContributionApproved(ctx, &member, contribution)
	})

	s.audit(ctx, adminID, "approve", contribution.ID)
	return contribution, nil
}

// Reject moves a contribution to rejected with an admin remark. Rejecting
// an already rejected contribution just revises the remark; approved
// contributions are terminal.
func (s *ContributionService) Reject(ctx context.Context, id uint, adminID uint, remarks string) (*models.Contribution, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("contribution not found")
	}

	fsm := statemachine.NewContributionFSM(contribution)
	if err := fsm.Reject(ctx); err != nil {
		return nil, NewStateConflictError(CodeInvalidState, "an approved contribution cannot be rejected")
	}
	contribution.Remarks = remarks

	if err := s.repo.Update(ctx, contribution); err != nil {
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}

	member := contribution.Member
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyMember(ctx, contribution.MemberID,
			"Contribution rejected",
			fmt.Sprintf("Your contribution for %s was rejected. Reason: %s", contribution.Month, remarks),
			models.NotificationTypeContributionRejected, &contribution.ID); err != nil {
			logger.Error(fmt.Sprintf("failed to notify member %d: %v", contribution.MemberID, err))
		}
		return s.emailSvc.SendContributionRejected(ctx, &member, contribution)
	})

	s.audit(ctx, adminID, "reject", contribution.ID)
	return contribution, nil
}

// FindByID loads one contribution
func (s *ContributionService) FindByID(ctx context.Context, id uint) (*models.Contribution, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, NewNotFoundError("contribution not found")
	}
	return contribution, nil
}

// FindByMember lists a member's own contributions, newest month first
func (s *ContributionService) FindByMember(ctx context.Context, memberID uint) ([]models.Contribution, error) {
	return s.repo.FindByMember(ctx, memberID)
}

// List returns contributions for the admin review queue
func (s *ContributionService) List(ctx context.Context, query *repository.ListQuery) ([]models.Contribution, int64, error) {
	return s.repo.List(ctx, query)
}

// SlipPath returns the absolute path of the stored proof for serving
func (s *ContributionService) SlipPath(ctx context.Context, id uint) (string, error) {
	contribution, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", NewNotFoundError("contribution not found")
	}
	if contribution.ProofPath == "" || !s.storage.Exists(contribution.ProofPath) {
		return "", NewNotFoundError("slip not found")
	}
	return s.storage.GetFullPath(contribution.ProofPath), nil
}

func (s *ContributionService) audit(ctx context.Context, adminID uint, action string, contributionID uint) {
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.auditSvc.Log(ctx, adminID, action, "contribution", contributionID, "", "", "")
	})
}

// slip date formats seen across GPay and PhonePe screenshots
var slipDateLayouts = []string{
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02/01/2006",
	"2006-01-02",
}

func resolvePaymentDate(ocrDate *string) time.Time {
	if ocrDate != nil {
		for _, layout := range slipDateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(*ocrDate)); err == nil {
				return t
			}
		}
	}
	return time.Now()
}
