package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/mandalhq/mandal-api/internal/config"
	"github.com/mandalhq/mandal-api/internal/models"
	"github.com/mandalhq/mandal-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

const appURL = "https://app.mandalhq.com"

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

func (s *EmailService) SendContributionApproved(ctx context.Context, member *models.Member, contribution *models.Contribution) error {
	data := struct {
		Name   string
		Month  string
		Amount string
		AppURL string
	}{
		Name:   member.FullName,
		Month:  contribution.Month,
		Amount: fmt.Sprintf("₹%.2f", contribution.Amount),
		AppURL: appURL,
	}

	body, err := s.renderTemplate("contribution_approved.html", data)
	if err != nil {
		return err
	}

	return s.send(member.Email, "Contribution Approved", body)
}

func (s *EmailService) SendContributionRejected(ctx context.Context, member *models.Member, contribution *models.Contribution) error {
	data := struct {
		Name    string
		Month   string
		Amount  string
		Remarks string
		AppURL  string
	}{
		Name:    member.FullName,
		Month:   contribution.Month,
		Amount:  fmt.Sprintf("₹%.2f", contribution.Amount),
		Remarks: contribution.Remarks,
		AppURL:  appURL,
	}

	body, err := s.renderTemplate("contribution_rejected.html", data)
	if err != nil {
		return err
	}

	return s.send(member.Email, "Contribution Rejected", body)
}

func (s *EmailService) SendLoanApproved(ctx context.Context, member *models.Member, loan *models.Loan) error {
	data := struct {
		Name         string
		Principal    string
		InterestRate string
		Interest     string
		TotalPayable string
		Duration     int
		AppURL       string
	}{
		Name:         member.FullName,
		Principal:    fmt.Sprintf("₹%.2f", loan.Amount),
		InterestRate: fmt.Sprintf("%.2f%%", loan.InterestRate),
		Interest:     fmt.Sprintf("₹%.2f", loan.InterestAmount),
		TotalPayable: fmt.Sprintf("₹%.2f", loan.TotalPayable),
		Duration:     loan.Duration,
		AppURL:       appURL,
	}

	body, err := s.renderTemplate("loan_approved.html", data)
	if err != nil {
		return err
	}

	return s.send(member.Email, "Loan Approved", body)
}

func (s *EmailService) SendLoanClosed(ctx context.Context, member *models.Member, loan *models.Loan) error {
	data := struct {
		Name         string
		Principal    string
		TotalPayable string
		AppURL       string
	}{
		Name:         member.FullName,
		Principal:    fmt.Sprintf("₹%.2f", loan.Amount),
		TotalPayable: fmt.Sprintf("₹%.2f", loan.TotalPayable),
		AppURL:       appURL,
	}

	body, err := s.renderTemplate("loan_closed.html", data)
	if err != nil {
		return err
	}

	return s.send(member.Email, "Loan Fully Repaid", body)
}

func (s *EmailService) SendContributionReminder(ctx context.Context, member *models.Member, month string) error {
	data := struct {
		Name   string
		Month  string
		AppURL string
	}{
		Name:   member.FullName,
		Month:  month,
		AppURL: appURL,
	}

	body, err := s.renderTemplate("contribution_reminder.html", data)
	if err != nil {
		return err
	}

	return s.send(member.Email, fmt.Sprintf("Contribution Reminder for %s", month), body)
}

func (s *EmailService) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	_, err := s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
