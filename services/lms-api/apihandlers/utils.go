package apihandlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	jwthandling "github.com/learnhub-io/lms-backend/pkg/jwt-handling"
)

// randomWait adds jitter before responding to failed credential checks, to
// discourage brute forcing and timing analysis.
func randomWait(minTimeSec int, maxTimeSec int) {
	time.Sleep(time.Duration(rand.Intn(maxTimeSec-minTimeSec)+minTimeSec) * time.Second)
}

func getValidatedClaims(c *gin.Context) (*jwthandling.LmsUserClaims, bool) {
	tokenValue, exists := c.Get("validatedToken")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return nil, false
	}
	claims, ok := tokenValue.(*jwthandling.LmsUserClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}
	return claims, true
}
