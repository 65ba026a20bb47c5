package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/middleware"
	"github.com/mandalhq/mandal-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	loanService   *services.LoanService
}

func NewReportHandler(reportService *services.ReportService, loanService *services.LoanService) *ReportHandler {
	return &ReportHandler{reportService: reportService, loanService: loanService}
}

// @Summary Loan Statement PDF
// @Description Download a PDF statement for a loan
// @Tags Reports
// @Produce application/pdf
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /reports/loans/{loan_id}/statement [get]
func (h *ReportHandler) LoanStatement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	if !h.authorizeLoan(c, uint(id)) {
		return
	}

	buf, err := h.reportService.GenerateLoanStatementPDF(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=loan_statement_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Loan Agreement PDF
// @Description Download the loan agreement document for an approved loan
// @Tags Reports
// @Produce application/pdf
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} binary
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reports/loans/{loan_id}/agreement [get]
func (h *ReportHandler) LoanAgreement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	if !h.authorizeLoan(c, uint(id)) {
		return
	}

	buf, err := h.reportService.GenerateLoanAgreementPDF(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=loan_agreement_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Member Statement PDF
// @Description Download the authenticated member's contribution statement
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/statement [get]
func (h *ReportHandler) MemberStatement(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	buf, err := h.reportService.GenerateMemberStatementPDF(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=contribution_statement.pdf")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *ReportHandler) authorizeLoan(c *gin.Context, loanID uint) bool {
	loan, err := h.loanService.FindByID(c.Request.Context(), loanID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !middleware.IsAdmin(c) && loan.MemberID != middleware.GetMemberID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "loan not found"})
		return false
	}
	return true
}
