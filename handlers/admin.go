package handlers

import (
	"errors"
	"net/http"

	"adspace/services/payout"
	"adspace/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler encapsulates operator-level payout operations.
type AdminHandler struct {
	payouts PayoutSweeper
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(payouts PayoutSweeper) *AdminHandler {
	return &AdminHandler{payouts: payouts}
}

// ApproveProofHandler approves a booking's installation proof ahead of the approval window.
func (ah *AdminHandler) ApproveProofHandler(c *gin.Context) {
	bookingID := c.Param("id")
	outcome, err := ah.payouts.ApproveProof(c.Request.Context(), bookingID)
	switch {
	case errors.Is(err, payout.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "Booking not found", bookingID)
		return
	case errors.Is(err, payout.ErrProofNotUploaded), errors.Is(err, payout.ErrBookingNotApprovable):
		utils.JSONError(c, http.StatusConflict, "Proof cannot be approved", err.Error())
		return
	case err != nil:
		zap.L().Error("Admin proof approval failed", zap.String("bookingId", bookingID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Proof approval failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookingId": bookingID, "outcome": outcome})
}

// ReviewQueueHandler lists bookings whose payouts need manual attention.
func (ah *AdminHandler) ReviewQueueHandler(c *gin.Context) {
	bookings, err := ah.payouts.ReviewQueue(c.Request.Context())
	if err != nil {
		zap.L().Error("Failed to fetch review queue", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch review queue", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}
