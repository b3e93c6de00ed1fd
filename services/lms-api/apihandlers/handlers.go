package apihandlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	jwthandling "github.com/learnhub-io/lms-backend/pkg/jwt-handling"
	usermanagement "github.com/learnhub-io/lms-backend/pkg/user-management"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	userManagement *usermanagement.Service
	tokenIssuer    *jwthandling.TokenIssuer
}

func NewHTTPHandler(
	userManagement *usermanagement.Service,
	tokenIssuer *jwthandling.TokenIssuer,
) *HttpEndpoints {
	return &HttpEndpoints{
		userManagement: userManagement,
		tokenIssuer:    tokenIssuer,
	}
}
