package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/middleware"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/services"
	"github.com/mandalhq/mandal-api/internal/storage"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

type RequestLoanRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	Reason   string  `json:"reason"`
	Duration int     `json:"duration" example:"12"`
}

// @Summary Request Loan
// @Description Request a loan against the pooled fund
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body RequestLoanRequest true "Loan request"
// @Success 201 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	var req RequestLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	loan, err := h.loanService.Request(c.Request.Context(), memberID, req.Amount, req.Reason, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary List Loans
// @Description Get a paginated list of loans (Admin)
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param search query string false "Search by member name or email"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Search = c.Query("search")

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary My Loans
// @Description Get the authenticated member's loans
// @Tags Loans
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/mine [get]
func (h *LoanHandler) Mine(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	loans, err := h.loanService.FindByMember(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"loans": responses})
}

// @Summary Get Loan
// @Description Get a loan with its installments
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	loan, err := h.loanService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && loan.MemberID != middleware.GetMemberID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "loan not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

type ApproveLoanRequest struct {
	InterestRate float64 `json:"interest_rate"`
	Duration     int     `json:"duration"`
}

// @Summary Approve Loan
// @Description Approve a pending loan and fix its interest terms (Admin)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body ApproveLoanRequest true "Interest terms"
// @Success 200 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/approve [post]
func (h *LoanHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	adminID := middleware.GetMemberID(c)

	var req ApproveLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	loan, err := h.loanService.Approve(c.Request.Context(), uint(id), adminID, req.InterestRate, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Reject Loan
// @Description Reject a pending loan with a remark (Admin)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body RejectRequest true "Rejection remarks"
// @Success 200 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/reject [post]
func (h *LoanHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	adminID := middleware.GetMemberID(c)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	loan, err := h.loanService.Reject(c.Request.Context(), uint(id), adminID, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Pay Installment
// @Description Submit a partial repayment against an active loan
// @Tags Loans
// @Accept multipart/form-data
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param amount formData number true "Repayment amount"
// @Param slip formData file false "Payment screenshot"
// @Success 201 {object} models.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/installments [post]
func (h *LoanHandler) PayInstallment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	memberID := middleware.GetMemberID(c)

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	var file multipart.File
	var header *multipart.FileHeader
	if fileHeader, err := c.FormFile("slip"); err == nil {
		if !storage.IsValidContentType(fileHeader.Header.Get("Content-Type")) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slip must be a JPEG or PNG image"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read slip image"})
			return
		}
		defer f.Close()
		file = f
		header = fileHeader
	}

	loan, err := h.loanService.PayInstallment(c.Request.Context(), uint(id), memberID, services.PayInstallmentInput{
		Amount: amount,
		File:   file,
		Header: header,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary Approve Installment
// @Description Approve a submitted repayment; closes the loan when fully repaid (Admin)
// @Tags Loans
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param position path int true "Installment position"
// @Success 200 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/installments/{position}/approve [post]
func (h *LoanHandler) ApproveInstallment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	position, _ := strconv.Atoi(c.Param("position"))
	adminID := middleware.GetMemberID(c)

	loan, err := h.loanService.ApproveInstallment(c.Request.Context(), uint(id), position, adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

type RejectInstallmentRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Installment
// @Description Reject a submitted repayment (Admin)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param position path int true "Installment position"
// @Param request body RejectInstallmentRequest true "Rejection reason"
// @Success 200 {object} models.LoanResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/installments/{position}/reject [post]
func (h *LoanHandler) RejectInstallment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	position, _ := strconv.Atoi(c.Param("position"))
	adminID := middleware.GetMemberID(c)

	var req RejectInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	loan, err := h.loanService.RejectInstallment(c.Request.Context(), uint(id), position, adminID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}
