package handlers

import (
	"errors"
	"io"
	"net/http"

	"adspace/services/processor"
	"adspace/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

// WebhookHandler receives connected account events from Stripe.
type WebhookHandler struct {
	parser  EventParser
	deduper EventDeduper
	monitor HealthMonitor
}

// NewWebhookHandler builds the handler. deduper may be nil, in which case redeliveries are
// applied again; the monitor's transitions tolerate that.
func NewWebhookHandler(parser EventParser, deduper EventDeduper, monitor HealthMonitor) *WebhookHandler {
	return &WebhookHandler{parser: parser, deduper: deduper, monitor: monitor}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	logger := getLogger(c)
	ctx := c.Request.Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Could not read request body", err.Error())
		return
	}

	evt, err := h.parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, processor.ErrInvalidSignature) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid signature", "")
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "Invalid event payload", err.Error())
		return
	}

	if h.deduper != nil {
		claimed, err := h.deduper.Claim(ctx, evt.EventID())
		if err != nil {
			logger.Warn("Webhook dedupe unavailable, processing anyway", zap.String("eventId", evt.EventID()), zap.Error(err))
		} else if !claimed {
			logger.Info("Duplicate webhook ignored", zap.String("eventId", evt.EventID()))
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	if err := h.monitor.HandleEvent(ctx, evt); err != nil {
		logger.Error("Failed to apply webhook event", zap.String("eventId", evt.EventID()), zap.Error(err))
		if h.deduper != nil {
			if relErr := h.deduper.Release(ctx, evt.EventID()); relErr != nil {
				logger.Warn("Failed to release webhook event claim", zap.String("eventId", evt.EventID()), zap.Error(relErr))
			}
		}
		utils.JSONError(c, http.StatusInternalServerError, "Failed to process event", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
