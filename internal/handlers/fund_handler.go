package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/services"
)

type FundHandler struct {
	fundService      *services.FundService
	analyticsService *services.AnalyticsService
	exportService    *services.ExportService
}

func NewFundHandler(fundService *services.FundService, analyticsService *services.AnalyticsService, exportService *services.ExportService) *FundHandler {
	return &FundHandler{
		fundService:      fundService,
		analyticsService: analyticsService,
		exportService:    exportService,
	}
}

// @Summary Fund Snapshot
// @Description Get the current fund position (total, loaned out, available)
// @Tags Fund
// @Produce json
// @Success 200 {object} models.FundSnapshot
// @Security BearerAuth
// @Router /fund [get]
func (h *FundHandler) Show(c *gin.Context) {
	snapshot, err := h.fundService.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fund": snapshot})
}

// @Summary Fund Overview
// @Description Get the dashboard overview: fund position, monthly volumes and loan book (Admin)
// @Tags Fund
// @Produce json
// @Success 200 {object} services.FundOverview
// @Security BearerAuth
// @Router /fund/overview [get]
func (h *FundHandler) Overview(c *gin.Context) {
	overview, err := h.analyticsService.GetOverview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// @Summary Export Contributions
// @Description Download an XLSX of approved contributions for a month (Admin)
// @Tags Fund
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /fund/export/contributions [get]
func (h *FundHandler) ExportContributions(c *gin.Context) {
	month := c.Query("month")
	if _, err := time.Parse("2006-01", month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be in YYYY-MM format"})
		return
	}

	data, filename, err := h.exportService.ExportContributionsXLSX(c.Request.Context(), month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Export Fund Report
// @Description Download the fund overview as CSV (Admin)
// @Tags Fund
// @Produce text/csv
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /fund/export/report [get]
func (h *FundHandler) ExportReport(c *gin.Context) {
	data, filename, err := h.exportService.ExportFundCSV(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
