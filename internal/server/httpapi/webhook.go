package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
)

type webhookPayload struct {
	Ref string `json:"ref"`
}

// handleWebhook authenticates the delivery against the raw body, filters the
// event, and starts a deployment in the background. The response acknowledges
// the trigger; the outcome is logged and archived, not reported to the sender.
func (h *Handler) handleWebhook(c *gin.Context) {
	sig := c.GetHeader(signatureHeader)
	if sig == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	if !h.gatekeeper.VerifySignature(body, sig) {
		h.logger.Warn(c.Request.Context(), "webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	event := c.GetHeader(eventHeader)
	if !h.gatekeeper.ShouldDeploy(event, payload.Ref) {
		h.logger.Info(c.Request.Context(), "webhook ignored", "event", event, "ref", payload.Ref)
		c.JSON(http.StatusOK, gin.H{"message": "ignored"})
		return
	}

	if err := h.trigger.Start(models.DeploymentSourceWebhook); err != nil {
		if errors.Is(err, common.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "deployment already in progress"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start deployment"})
		return
	}

	h.logger.Info(c.Request.Context(), "deployment triggered by webhook", "ref", payload.Ref)
	c.JSON(http.StatusOK, gin.H{"message": "deploy triggered"})
}
