package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/internal/logger"
	"finsight/internal/services"
)

// AnalyticsHandler handles health-score and dashboard requests.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetHealthScore returns the weighted financial health score. A failed
// computation degrades to neutral zero components rather than a 5xx, since
// the score is informational.
func (h *AnalyticsHandler) GetHealthScore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	score, err := h.analyticsService.GetHealthScore(userID)
	if err != nil {
		logger.Get().Warnw("Health score computation failed, returning neutral defaults",
			"user_id", userID,
			"error", err,
		)
		score = &services.HealthScore{}
	}

	c.JSON(http.StatusOK, gin.H{"health_score": score})
}

// GetDashboard returns the aggregated landing-page numbers.
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.analyticsService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}
