package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/internal/logger"
	"finsight/internal/models"
	"finsight/internal/services"
)

// InsightHandler handles insight feed requests.
type InsightHandler struct {
	insightService services.InsightServicer
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insightService services.InsightServicer) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// ListInsights returns the current insight feed, regenerating it when stale.
// Insights are advisory only, so an unexpected failure degrades to an empty
// list instead of a 5xx.
func (h *InsightHandler) ListInsights(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	insights, err := h.insightService.GetInsights(c.Request.Context(), userID)
	if err != nil {
		logger.Get().Warnw("Insight generation failed, returning empty feed",
			"user_id", userID,
			"error", err,
		)
		insights = []models.Insight{}
	}

	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// GenerateInsights forces a fresh evaluation of all insight rules.
func (h *InsightHandler) GenerateInsights(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	insights, err := h.insightService.GenerateInsights(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// DismissInsight hides an insight from subsequent feed reads.
func (h *InsightHandler) DismissInsight(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	insightID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.insightService.DismissInsight(userID, insightID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
