package handler

import (
	"net/http"
	"time"

	"musicsocial/internal/service"
	"musicsocial/pkg/apperror"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	statsGroup := router.Group("/api/statistics")
	{
		statsGroup.GET("", require(PermStatisticsRead), h.GetStatistics)
	}
}

// GetStatistics returns platform totals and the artists and users created in a time range
// @Summary      Get dashboard statistics
// @Description  Artists by status, users by role, and sign-ups bounded by time
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (RFC3339), default first day of the current month"
// @Param        end_date    query     string  false  "End date (RFC3339), default now"
// @Success      200         {object}  response.Response{data=service.PlatformStatistics}
// @Failure      400         {object}  response.Response
// @Failure      403         {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := time.Now()
	startDate, ok := parseTime(c, "start_date", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	if !ok {
		return
	}
	endDate, ok := parseTime(c, "end_date", now)
	if !ok {
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

func parseTime(c *gin.Context, name string, fallback time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Fail(c, apperror.InvalidField(name, "must be an RFC3339 timestamp"))
		return time.Time{}, false
	}
	return t, true
}
