package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleHealth is unauthenticated and side-effect free.
func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Seconds(),
	})
}
