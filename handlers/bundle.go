package handlers

import (
	"context"

	"adspace/models"
	"adspace/services/accounthealth"
	"adspace/services/payout"
	"adspace/services/processor"

	"github.com/gin-gonic/gin"
)

// PayoutSweeper is the part of *payout.Executor the HTTP layer drives.
type PayoutSweeper interface {
	ApproveProofs(ctx context.Context) (*payout.SweepReport, error)
	RetryPayouts(ctx context.Context) (*payout.SweepReport, error)
	ApproveProof(ctx context.Context, bookingID string) (payout.Outcome, error)
	ReviewQueue(ctx context.Context) ([]models.Booking, error)
}

// HealthMonitor is the part of *accounthealth.Monitor the HTTP layer drives.
type HealthMonitor interface {
	Sweep(ctx context.Context) (*accounthealth.SweepReport, error)
	HandleEvent(ctx context.Context, evt processor.Event) error
}

// EventParser verifies and decodes a processor webhook payload.
type EventParser interface {
	Parse(payload []byte, signature string) (processor.Event, error)
}

// EventDeduper claims webhook event IDs so a redelivered event is applied once.
type EventDeduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Cron endpoints
	ApproveProofsHandler gin.HandlerFunc
	RetryPayoutsHandler  gin.HandlerFunc
	AccountHealthHandler gin.HandlerFunc

	// Processor webhooks
	StripeWebhookHandler gin.HandlerFunc

	// Admin endpoints
	AdminHandler *AdminHandler

	HealthHandler gin.HandlerFunc

	CronSecret string
	AdminToken string
	RateLimit  int
}

// NewHandlerBundle wires every handler against the payout executor and account health monitor.
func NewHandlerBundle(payouts PayoutSweeper, monitor HealthMonitor, parser EventParser, deduper EventDeduper, cronSecret, adminToken string, rateLimit int) *HandlerBundle {
	cron := NewCronHandler(payouts, monitor)
	webhook := NewWebhookHandler(parser, deduper, monitor)
	return &HandlerBundle{
		ApproveProofsHandler: cron.ApproveProofs,
		RetryPayoutsHandler:  cron.RetryPayouts,
		AccountHealthHandler: cron.AccountHealth,
		StripeWebhookHandler: webhook.Handle,
		AdminHandler:         NewAdminHandler(payouts),
		HealthHandler:        HealthCheckHandler,
		CronSecret:           cronSecret,
		AdminToken:           adminToken,
		RateLimit:            rateLimit,
	}
}
