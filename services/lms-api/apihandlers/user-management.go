package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/learnhub-io/lms-backend/pkg/apihelpers/middlewares"
	usermanagement "github.com/learnhub-io/lms-backend/pkg/user-management"
	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
)

func (h *HttpEndpoints) AddUserManagementAPI(rg *gin.RouterGroup) {
	userGroup := rg.Group("/users")
	userGroup.Use(mw.GetAndValidateLmsUserJWT(h.tokenIssuer))
	{
		userGroup.GET("/:id", mw.RequireRole(userTypes.ROLE_ADMIN, userTypes.ROLE_INSTRUCTOR), h.getUser)
		userGroup.GET("/:id/revoke-sessions", mw.RequireRole(userTypes.ROLE_ADMIN), h.revokeUserSessions)
	}
}

func (h *HttpEndpoints) getUser(c *gin.Context) {
	user, err := h.userManagement.GetUser(c.Param("id"))
	if err != nil {
		if errors.Is(err, usermanagement.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		slog.Error("failed to fetch user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HttpEndpoints) revokeUserSessions(c *gin.Context) {
	userID := c.Param("id")
	if _, err := h.userManagement.GetUser(userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.userManagement.RevokeAllSessions(userID); err != nil {
		slog.Error("failed to revoke sessions", slog.String("error", err.Error()), slog.String("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	slog.Info("sessions revoked by admin", slog.String("userID", userID))
	c.JSON(http.StatusOK, gin.H{"message": "all sessions revoked"})
}
