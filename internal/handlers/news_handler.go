package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"finsight/internal/news"
)

const defaultNewsLimit = 10

// NewsHandler serves the market news feed.
type NewsHandler struct {
	provider news.Provider
}

// NewNewsHandler creates a new NewsHandler.
func NewNewsHandler(provider news.Provider) *NewsHandler {
	return &NewsHandler{provider: provider}
}

// TopStories returns recent market news, newest first.
func (h *NewsHandler) TopStories(c *gin.Context) {
	limit := defaultNewsLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	articles, err := h.provider.TopStories(c.Request.Context(), limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles})
}
