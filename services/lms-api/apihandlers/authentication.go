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

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", mw.RequirePayload(), h.signup)
		authGroup.POST("/verify-email", mw.RequirePayload(), h.verifyEmail)
		authGroup.POST("/resend-email-verification", mw.RequirePayload(), h.resendEmailVerification)
		authGroup.POST("/login", mw.RequirePayload(), h.login)
		authGroup.POST("/logout", mw.RequirePayload(), h.logout)

		authGroup.POST("/token/renew", mw.RequirePayload(), h.renewToken)
		authGroup.GET("/token/validate", mw.GetAndValidateLmsUserJWT(h.tokenIssuer), h.validateToken)
		authGroup.GET("/token/revoke", mw.GetAndValidateLmsUserJWT(h.tokenIssuer), h.revokeAllSessions)
	}
}

type SignupReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *HttpEndpoints) signup(c *gin.Context) {
	var req SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.Email = umUtils.SanitizeEmail(req.Email)
	req.Username = umUtils.SanitizeUsername(req.Username)

	if !umUtils.CheckEmailFormat(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email format"})
		return
	}
	if !umUtils.CheckUsernameFormat(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username format"})
		return
	}
	if !umUtils.CheckPasswordFormat(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too weak"})
		return
	}
	if umUtils.IsPasswordOnBlocklist(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password on blocklist"})
		return
	}

	result, err := h.userManagement.Register(usermanagement.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, usermanagement.ErrAccountExists) {
			slog.Warn("signup attempt for taken email or username", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
			randomWait(1, 4)
			c.JSON(http.StatusConflict, gin.H{"error": "email or username already in use"})
			return
		}
		slog.Error("failed to create account", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":                  result.User,
		"verificationEmailSent": result.VerificationEmailSent,
	})
}

type VerifyEmailReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *HttpEndpoints) verifyEmail(c *gin.Context) {
	var req VerifyEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	user, err := h.userManagement.VerifyEmail(req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, usermanagement.ErrAccountNotFound),
			errors.Is(err, usermanagement.ErrInvalidVerificationCode):
			slog.Warn("email verification failed", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
			randomWait(1, 4)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification code"})
		case errors.Is(err, usermanagement.ErrVerificationCodeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verification code expired"})
		case errors.Is(err, usermanagement.ErrAlreadyVerified):
			c.JSON(http.StatusConflict, gin.H{"error": "account already verified"})
		default:
			slog.Error("failed to verify email", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *HttpEndpoints) resendEmailVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.userManagement.ResendVerificationCode(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, usermanagement.ErrAccountNotFound):
			// don't reveal whether the address has an account
			randomWait(1, 4)
			c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
		case errors.Is(err, usermanagement.ErrAlreadyVerified):
			c.JSON(http.StatusConflict, gin.H{"error": "account already verified"})
		case errors.Is(err, usermanagement.ErrEmailSendFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver verification email"})
		default:
			slog.Error("failed to resend verification code", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

type LoginReq struct {
	// email address or username
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *HttpEndpoints) login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	result, err := h.userManagement.Login(req.Identifier, req.Password, c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, usermanagement.ErrAccountNotFound),
			errors.Is(err, usermanagement.ErrInvalidCredentials):
			randomWait(1, 4)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		case errors.Is(err, usermanagement.ErrEmailNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "email address not verified"})
		default:
			slog.Error("failed to login", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         result.User,
		"accessToken":  result.Token.AccessToken,
		"refreshToken": result.Token.RefreshToken,
		"expiresIn":    result.Token.ExpiresIn,
	})
}

type RenewTokenReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *HttpEndpoints) renewToken(c *gin.Context) {
	var req RenewTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is required"})
		return
	}

	result, err := h.userManagement.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, usermanagement.ErrInvalidRefreshToken),
			errors.Is(err, usermanagement.ErrNoActiveSessions),
			errors.Is(err, usermanagement.ErrSessionReuse),
			errors.Is(err, usermanagement.ErrRefreshExpired):
			randomWait(1, 4)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		case errors.Is(err, usermanagement.ErrRefreshConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "token was already renewed"})
		default:
			slog.Error("failed to renew token", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  result.Token.AccessToken,
		"refreshToken": result.Token.RefreshToken,
		"expiresIn":    result.Token.ExpiresIn,
	})
}

func (h *HttpEndpoints) logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// best effort, a stale or malformed token still logs out client side
	h.userManagement.Logout(req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *HttpEndpoints) validateToken(c *gin.Context) {
	claims, ok := getValidatedClaims(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userID":           claims.Subject,
		"role":             claims.Role,
		"isActive":         claims.IsActive,
		"accountConfirmed": claims.AccountConfirmed,
		"sessionID":        claims.SessionID,
	})
}

func (h *HttpEndpoints) revokeAllSessions(c *gin.Context) {
	claims, ok := getValidatedClaims(c)
	if !ok {
		return
	}

	if err := h.userManagement.RevokeAllSessions(claims.Subject); err != nil {
		slog.Error("failed to revoke sessions", slog.String("error", err.Error()), slog.String("userID", claims.Subject))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	slog.Info("all sessions revoked", slog.String("userID", claims.Subject))
	c.JSON(http.StatusOK, gin.H{"message": "all sessions revoked"})
}
