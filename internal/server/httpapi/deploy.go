package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

// handleDeploy runs a deployment synchronously on behalf of an operator.
// Authorization is the webhook shared secret as a bearer token.
func (h *Handler) handleDeploy(c *gin.Context) {
	if !h.checkDeploySecret(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.trigger.Run(c.Request.Context(), models.DeploymentSourceManual)
	if err != nil {
		if errors.Is(err, common.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "deployment already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deployment error"})
		return
	}

	if result.Err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     result.Err.Error(),
			"exit_code": result.ExitCode,
			"stdout":    result.Stdout,
			"stderr":    result.Stderr,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "deploy succeeded",
		"exit_code": result.ExitCode,
		"stdout":    result.Stdout,
		"stderr":    result.Stderr,
	})
}

func (h *Handler) checkDeploySecret(authHeader string) bool {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return false
	}
	if len(token) != len(h.webhookSecret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), h.webhookSecret) == 1
}
