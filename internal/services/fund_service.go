package services

import (
	"context"
	"fmt"

	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/repository"
)

// FundService computes the pooled fund position
type FundService struct {
	fundRepo repository.FundRepository
}

// NewFundService creates a new fund service
func NewFundService(fundRepo repository.FundRepository) *FundService {
	return &FundService{fundRepo: fundRepo}
}

// Snapshot derives the current fund position from the live ledger.
// Nothing is cached between calls; two loan approvals racing each other
// both see the fund as of their own read.
func (s *FundService) Snapshot(ctx context.Context) (*models.FundSnapshot, error) {
	totalFund, err := s.fundRepo.TotalContributed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum contributions: %w", err)
	}

	loanedOut, err := s.fundRepo.TotalLoanedOut(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum loans: %w", err)
	}

	// A corrected or rejected contribution can leave more principal out
	// than the pool holds; available never goes below zero
	available := Round2(totalFund - loanedOut)
	if available < 0 {
		available = 0
	}

	return &models.FundSnapshot{
		TotalFund:     Round2(totalFund),
		TotalLoanOut:  Round2(loanedOut),
		AvailableFund: available,
	}, nil
}

// AvailableFund returns only the available portion of the pool
func (s *FundService) AvailableFund(ctx context.Context) (float64, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snapshot.AvailableFund, nil
}
