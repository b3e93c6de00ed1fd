package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/learnhub-io/lms-backend/pkg/apihelpers/middlewares"
	usermanagement "github.com/learnhub-io/lms-backend/pkg/user-management"
	umUtils "github.com/learnhub-io/lms-backend/pkg/user-management/utils"
)

func (h *HttpEndpoints) AddPasswordResetAPI(rg *gin.RouterGroup) {
	pwResetGroup := rg.Group("/password-reset")
	{
		pwResetGroup.POST("/initiate", mw.RequirePayload(), h.initiatePasswordReset)
		pwResetGroup.POST("/reset", mw.RequirePayload(), h.resetPassword)
	}
}

func (h *HttpEndpoints) initiatePasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	err := h.userManagement.ForgotPassword(req.Email)
	if err != nil {
		if errors.Is(err, usermanagement.ErrEmailSendFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver password reset email"})
			return
		}
		slog.Error("failed to initiate password reset", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// same response whether or not the address has an account
	c.JSON(http.StatusOK, gin.H{"message": "password reset initiated"})
}

func (h *HttpEndpoints) resetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email"`
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" || req.Token == "" {
		randomWait(1, 4)
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and token are required"})
		return
	}

	if !umUtils.CheckPasswordFormat(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too weak"})
		return
	}
	if umUtils.IsPasswordOnBlocklist(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password on blocklist"})
		return
	}

	err := h.userManagement.ResetPassword(req.Email, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, usermanagement.ErrResetInvalidOrExpired),
			errors.Is(err, usermanagement.ErrInvalidResetToken),
			errors.Is(err, usermanagement.ErrResetAlreadyUsed):
			slog.Warn("password reset with invalid token", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
			randomWait(1, 4)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		case errors.Is(err, usermanagement.ErrTooManyResetAttempts),
			errors.Is(err, usermanagement.ErrAccountLocked):
			randomWait(1, 4)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		default:
			slog.Error("failed to reset password", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}
