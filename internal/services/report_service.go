package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/internal/repository"
)

// ReportService generates member-facing PDF documents
type ReportService struct {
	loanRepo         repository.LoanRepository
	contributionRepo repository.ContributionRepository
	memberRepo       repository.MemberRepository
}

func NewReportService(
	loanRepo repository.LoanRepository,
	contributionRepo repository.ContributionRepository,
	memberRepo repository.MemberRepository,
) *ReportService {
	return &ReportService{
		loanRepo:         loanRepo,
		contributionRepo: contributionRepo,
		memberRepo:       memberRepo,
	}
}

// GenerateLoanStatementPDF renders a loan's terms and repayment history
func (s *ReportService) GenerateLoanStatementPDF(ctx context.Context, loanID uint) (*bytes.Buffer, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Loan Statement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Member:")
	pdf.Cell(60, 8, loan.Member.FullName)
	pdf.Ln(6)
	pdf.Cell(60, 8, "Loan ID:")
	pdf.Cell(60, 8, fmt.Sprintf("#%d", loan.ID))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Status:")
	pdf.Cell(60, 8, loan.Status)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Terms")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Principal", fmt.Sprintf("%.2f INR", loan.Amount)},
		{"Interest rate", fmt.Sprintf("%.2f%% per annum", loan.InterestRate)},
		{"Duration", fmt.Sprintf("%d months", loan.Duration)},
		{"Interest", fmt.Sprintf("%.2f INR", loan.InterestAmount)},
		{"Total payable", fmt.Sprintf("%.2f INR", loan.TotalPayable)},
		{"Pending", fmt.Sprintf("%.2f INR", loan.PendingAmount)},
	}
	for _, r := range rows {
		pdf.Cell(60, 7, r[0]+":")
		pdf.Cell(60, 7, r[1])
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 8, "Repayments")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 7, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 7, "Reference", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, inst := range loan.Installments {
		ref := ""
		if inst.ReferenceID != nil {
			ref = *inst.ReferenceID
		}
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", inst.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, inst.PaidAt.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", inst.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, ref, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, inst.Status, "1", 1, "C", false, 0, "")
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GenerateMemberStatementPDF renders a member's contribution history
func (s *ReportService) GenerateMemberStatementPDF(ctx context.Context, memberID uint) (*bytes.Buffer, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	contributions, err := s.contributionRepo.FindByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Contribution Statement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Member:")
	pdf.Cell(60, 8, member.FullName)
	pdf.Ln(6)
	pdf.Cell(60, 8, "Generated:")
	pdf.Cell(60, 8, time.Now().Format("2006-01-02"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(30, 7, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Provider", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	total := 0.0
	for _, c := range contributions {
		pdf.CellFormat(30, 7, c.Month, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", c.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, c.Provider, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, c.Status, "1", 1, "C", false, 0, "")
		if c.Status == models.ContributionStatusDone {
			total += c.Amount
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(60, 8, fmt.Sprintf("Total approved: %.2f INR", Round2(total)))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GenerateLoanAgreementPDF renders the signed loan agreement from HTML
func (s *ReportService) GenerateLoanAgreementPDF(ctx context.Context, loanID uint) (*bytes.Buffer, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.ApprovedAt == nil {
		return nil, NewStateConflictError(CodeInvalidState, "agreement is only available for approved loans")
	}

	data := struct {
		MemberName   string
		LoanID       uint
		Principal    string
		InterestRate string
		Interest     string
		TotalPayable string
		Duration     int
		ApprovedAt   string
		Generated    string
	}{
		MemberName:   loan.Member.FullName,
		LoanID:       loan.ID,
		Principal:    fmt.Sprintf("%.2f INR", loan.Amount),
		InterestRate: fmt.Sprintf("%.2f%%", loan.InterestRate),
		Interest:     fmt.Sprintf("%.2f INR", loan.InterestAmount),
		TotalPayable: fmt.Sprintf("%.2f INR", loan.TotalPayable),
		Duration:     loan.Duration,
		ApprovedAt:   loan.ApprovedAt.Format("2 January 2006"),
		Generated:    time.Now().Format("2 January 2006"),
	}

	return s.generatePDF("loan_agreement.html", data)
}

// generatePDF renders an HTML template through wkhtmltopdf
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}
