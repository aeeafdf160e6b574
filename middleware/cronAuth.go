package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CronAuthMiddleware admits scheduler calls that carry the shared cron secret.
// An empty secret rejects everything.
func CronAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok || !tokenMatches(tokenString, secret) {
			zap.L().Warn("Rejected cron request", zap.String("ip", getClientIP(c)), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
