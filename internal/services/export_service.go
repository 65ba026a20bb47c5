package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService produces downloadable ledger exports for admins
type ExportService struct {
	contributionRepo repository.ContributionRepository
	analyticsSvc     *AnalyticsService
}

func NewExportService(contributionRepo repository.ContributionRepository, analyticsSvc *AnalyticsService) *ExportService {
	return &ExportService{contributionRepo: contributionRepo, analyticsSvc: analyticsSvc}
}

// ExportContributionsXLSX builds a spreadsheet of approved contributions
// for one month.
func (s *ExportService) ExportContributionsXLSX(ctx context.Context, month string) ([]byte, string, error) {
	contributions, err := s.contributionRepo.FindDoneByMonth(ctx, month)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Contributions"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Contributions for %s", month))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"Member", "Amount", "Provider", "Transaction ID", "Payment Date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
	}

	total := 0.0
	row := 4
	for _, c := range contributions {
		txn := ""
		if c.TransactionID != nil {
			txn = *c.TransactionID
		}
		date := ""
		if c.PaymentDate != nil {
			date = c.PaymentDate.Format("2006-01-02")
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.Member.FullName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.Amount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Provider)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), txn)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), date)
		total += c.Amount
		row++
	}

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row+1), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row+1), Round2(total))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("contributions_%s.xlsx", month)
	return buf.Bytes(), filename, nil
}

// ExportFundCSV dumps the fund overview as CSV
func (s *ExportService) ExportFundCSV(ctx context.Context) ([]byte, string, error) {
	overview, err := s.analyticsSvc.GetOverview(ctx)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Fund Report", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Metric", "Value"})
	_ = writer.Write([]string{"Total Fund", fmt.Sprintf("%.2f", overview.TotalFund)})
	_ = writer.Write([]string{"Loaned Out", fmt.Sprintf("%.2f", overview.TotalLoanOut)})
	_ = writer.Write([]string{"Available", fmt.Sprintf("%.2f", overview.AvailableFund)})
	_ = writer.Write([]string{""})

	_ = writer.Write([]string{"Monthly Contributions"})
	_ = writer.Write([]string{"Month", "Amount", "Count"})
	for _, m := range overview.MonthlyTotals {
		_ = writer.Write([]string{m.Month, fmt.Sprintf("%.2f", m.Amount), fmt.Sprintf("%d", m.Count)})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("fund_report_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
