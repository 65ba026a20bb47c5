package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/middleware"
	"github.com/mandalhq/mandal-api/internal/repository"
	"github.com/mandalhq/mandal-api/internal/services"
	"github.com/mandalhq/mandal-api/internal/storage"
)

type ContributionHandler struct {
	contributionService *services.ContributionService
}

func NewContributionHandler(contributionService *services.ContributionService) *ContributionHandler {
	return &ContributionHandler{contributionService: contributionService}
}

// @Summary Submit Contribution
// @Description Submit a monthly contribution with a payment slip
// @Tags Contributions
// @Accept multipart/form-data
// @Produce json
// @Param month formData string true "Month (YYYY-MM)"
// @Param amount formData number true "Amount"
// @Param provider formData string true "Payment app (gpay|phonepe)"
// @Param slip formData file true "Payment screenshot"
// @Success 201 {object} models.ContributionResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /contributions [post]
func (h *ContributionHandler) Create(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	fileHeader, err := c.FormFile("slip")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slip image is required"})
		return
	}
	if !storage.IsValidContentType(fileHeader.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slip must be a JPEG or PNG image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read slip image"})
		return
	}
	defer file.Close()

	contribution, err := h.contributionService.Submit(c.Request.Context(), memberID, services.SubmitContributionInput{
		Month:    c.PostForm("month"),
		Amount:   amount,
		Provider: c.PostForm("provider"),
		File:     file,
		Header:   fileHeader,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contribution": contribution.ToResponse()})
}

// @Summary List Contributions
// @Description Get a paginated list of contributions (Admin)
// @Tags Contributions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param search query string false "Search by member name or email"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contributions [get]
func (h *ContributionHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["month"] = c.Query("month")
	query.Search = c.Query("search")

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	contributions, total, err := h.contributionService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, contribution := range contributions {
		responses = append(responses, contribution.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"contributions": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary My Contributions
// @Description Get the authenticated member's contributions
// @Tags Contributions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contributions/mine [get]
func (h *ContributionHandler) Mine(c *gin.Context) {
	memberID := middleware.GetMemberID(c)

	contributions, err := h.contributionService.FindByMember(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for _, contribution := range contributions {
		responses = append(responses, contribution.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"contributions": responses})
}

// @Summary Get Contribution
// @Description Get a contribution by ID
// @Tags Contributions
// @Produce json
// @Param contribution_id path int true "Contribution ID"
// @Success 200 {object} models.ContributionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contributions/{contribution_id} [get]
func (h *ContributionHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("contribution_id"), 10, 32)

	contribution, err := h.contributionService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	// Members only see their own records
	if !middleware.IsAdmin(c) && contribution.MemberID != middleware.GetMemberID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contribution": contribution.ToResponse()})
}

// @Summary Approve Contribution
// @Description Approve a pending contribution (Admin)
// @Tags Contributions
// @Produce json
// @Param contribution_id path int true "Contribution ID"
// @Success 200 {object} models.ContributionResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /contributions/{contribution_id}/approve [post]
func (h *ContributionHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("contribution_id"), 10, 32)
	adminID := middleware.GetMemberID(c)

	contribution, err := h.contributionService.Approve(c.Request.Context(), uint(id), adminID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contribution": contribution.ToResponse()})
}

type RejectRequest struct {
	Remarks string `json:"remarks"`
}

// @Summary Reject Contribution
// @Description Reject a contribution with a remark (Admin)
// @Tags Contributions
// @Accept json
// @Produce json
// @Param contribution_id path int true "Contribution ID"
// @Param request body RejectRequest true "Rejection remarks"
// @Success 200 {object} models.ContributionResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /contributions/{contribution_id}/reject [post]
func (h *ContributionHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("contribution_id"), 10, 32)
	adminID := middleware.GetMemberID(c)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	contribution, err := h.contributionService.Reject(c.Request.Context(), uint(id), adminID, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contribution": contribution.ToResponse()})
}

// @Summary Download Slip
// @Description Download the proof slip image for a contribution
// @Tags Contributions
// @Produce octet-stream
// @Param contribution_id path int true "Contribution ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contributions/{contribution_id}/slip [get]
func (h *ContributionHandler) Slip(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("contribution_id"), 10, 32)

	contribution, err := h.contributionService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && contribution.MemberID != middleware.GetMemberID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
		return
	}

	path, err := h.contributionService.SlipPath(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.File(path)
}
