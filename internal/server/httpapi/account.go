package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astepanovs/gatehouse/internal/common"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleRegister creates an account gated by a registration code.
func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidUsernameFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username format"})
		case errors.Is(err, common.ErrInvalidPasswordFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password format"})
		case errors.Is(err, common.ErrInvalidCodeFormat),
			errors.Is(err, common.ErrorNotFound),
			errors.Is(err, common.ErrCodeNotAvailable):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration code"})
		case errors.Is(err, common.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already exists"})
		default:
			h.logger.Error(c.Request.Context(), "registration failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.UserName,
	})
}

// handleLogin verifies credentials and returns a session token.
func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	token, user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"id":       user.ID,
		"username": user.UserName,
		"is_admin": user.IsAdmin,
	})
}
