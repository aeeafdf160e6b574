package handlers

import (
	"net/http"

	"adspace/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CronHandler exposes the scheduled sweeps to an external scheduler.
type CronHandler struct {
	payouts PayoutSweeper
	monitor HealthMonitor
}

func NewCronHandler(payouts PayoutSweeper, monitor HealthMonitor) *CronHandler {
	return &CronHandler{payouts: payouts, monitor: monitor}
}

// ApproveProofs runs the proof auto-approval sweep.
func (h *CronHandler) ApproveProofs(c *gin.Context) {
	logger := getLogger(c)
	report, err := h.payouts.ApproveProofs(c.Request.Context())
	if err != nil {
		logger.Error("Proof approval sweep failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Proof approval sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// RetryPayouts runs the payout retry sweep.
func (h *CronHandler) RetryPayouts(c *gin.Context) {
	logger := getLogger(c)
	report, err := h.payouts.RetryPayouts(c.Request.Context())
	if err != nil {
		logger.Error("Payout retry sweep failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Payout retry sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// AccountHealth runs the connected account health sweep.
func (h *CronHandler) AccountHealth(c *gin.Context) {
	logger := getLogger(c)
	report, err := h.monitor.Sweep(c.Request.Context())
	if err != nil {
		logger.Error("Account health sweep failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Account health sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}
