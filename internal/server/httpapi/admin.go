package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astepanovs/gatehouse/internal/common"
	"github.com/astepanovs/gatehouse/internal/server/models"
)

type generateCodesRequest struct {
	Count int `json:"count"`
}

type setCodeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) handleListCodes(c *gin.Context) {
	codes, err := h.codes.List(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "failed to list registration codes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list codes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

func (h *Handler) handleGenerateCodes(c *gin.Context) {
	req := generateCodesRequest{Count: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	codes, err := h.codes.Generate(c.Request.Context(), req.Count)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCodeFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		h.logger.Error(c.Request.Context(), "failed to generate registration codes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate codes"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"codes": codes})
}

func (h *Handler) handleSetCodeStatus(c *gin.Context) {
	var req setCodeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	status := models.CodeStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	err := h.codes.SetStatus(c.Request.Context(), c.Param("code"), status)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
		case errors.Is(err, common.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status transition"})
		default:
			h.logger.Error(c.Request.Context(), "failed to update registration code", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update code"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *Handler) handleDeleteCode(c *gin.Context) {
	err := h.codes.Delete(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "code not found"})
			return
		}
		h.logger.Error(c.Request.Context(), "failed to delete registration code", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
