package handlers

import (
	"net/http"

	"adspace/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheckHandler reports the last dependency health snapshot.
func HealthCheckHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "dependencies": status})
}
