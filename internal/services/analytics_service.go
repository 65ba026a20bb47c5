package services

import (
	"context"
	"fmt"

	"github.com/mandalhq/mandal-api/internal/repository"
)

// FundOverview is the admin dashboard summary
type FundOverview struct {
	TotalFund     float64                   `json:"total_fund"`
	TotalLoanOut  float64                   `json:"total_loan_out"`
	AvailableFund float64                   `json:"available_fund"`
	MonthlyTotals []repository.MonthlyTotal `json:"monthly_totals"`
	LoanBook      *repository.LoanBookStats `json:"loan_book"`
}

// AnalyticsService aggregates ledger data for the dashboard and exports
type AnalyticsService struct {
	fundRepo repository.FundRepository
	fundSvc  *FundService
}

func NewAnalyticsService(fundRepo repository.FundRepository, fundSvc *FundService) *AnalyticsService {
	return &AnalyticsService{fundRepo: fundRepo, fundSvc: fundSvc}
}

// GetOverview builds the dashboard summary: fund position, twelve months
// of contribution volume and the loan book breakdown.
func (s *AnalyticsService) GetOverview(ctx context.Context) (*FundOverview, error) {
	snapshot, err := s.fundSvc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	monthly, err := s.fundRepo.MonthlyContributionTotals(ctx, 12)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly totals: %w", err)
	}

	loanBook, err := s.fundRepo.GetLoanBookStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan book stats: %w", err)
	}

	return &FundOverview{
		TotalFund:     snapshot.TotalFund,
		TotalLoanOut:  snapshot.TotalLoanOut,
		AvailableFund: snapshot.AvailableFund,
		MonthlyTotals: monthly,
		LoanBook:      loanBook,
	}, nil
}
