package handlers

import (
	"net/http"

	"taskboard-be/internal/services"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	stats *services.StatisticsService
}

func NewStatisticsHandler(stats *services.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// GetBoardStatistics godoc
// @Summary Get board statistics for dashboard
// @Description Returns task distribution per column, activity trend, top actors and an hourly activity heatmap
// @Tags statistics
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Board ID"
// @Param period query string false "Time period: 7d, 30d, 90d" default(30d)
// @Success 200 {object} models.StatisticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /boards/{id}/statistics [get]
func (h *StatisticsHandler) GetBoardStatistics(c *gin.Context) {
	actor, ok := withActor(c)
	if !ok {
		return
	}
	stats, err := h.stats.BoardStatistics(c.Request.Context(), actor, c.Param("id"), c.Query("period"))
	respond(c, http.StatusOK, stats, err)
}
