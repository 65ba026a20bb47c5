package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Worker Stats
// @Description Get background worker counters (Admin)
// @Tags Jobs
// @Produce json
// @Success 200 {object} jobs.WorkerStats
// @Security BearerAuth
// @Router /jobs/stats [get]
func (h *JobHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetWorkerStats())
}

// @Summary Run Reminders
// @Description Trigger the contribution reminder job immediately (Admin)
// @Tags Jobs
// @Produce json
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /jobs/reminders [post]
func (h *JobHandler) RunReminders(c *gin.Context) {
	if err := h.jobService.SendContributionReminders(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reminders dispatched"})
}
