package routes

import (
	"time"

	"adspace/handlers"
	"adspace/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterCronRoutes registers the scheduler-triggered sweeps.
func RegisterCronRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/cron")
	{
		api.Use(middleware.CronAuthMiddleware(hb.CronSecret))
		api.POST("/approve-proofs", hb.ApproveProofsHandler)
		api.POST("/retry-payouts", hb.RetryPayoutsHandler)
		api.POST("/account-health", hb.AccountHealthHandler)
	}
}

// RegisterWebhookRoutes registers processor callbacks. They authenticate by signature.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/stripe", hb.StripeWebhookHandler)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterAdminRoutes sets up endpoints for operator payout actions.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.RateLimitMiddleware(hb.RateLimit))
		adminGroup.Use(middleware.AdminAuthMiddleware(hb.AdminToken))
		adminGroup.POST("/bookings/:id/approve-proof", hb.AdminHandler.ApproveProofHandler)
		adminGroup.GET("/bookings/review", hb.AdminHandler.ReviewQueueHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterCronRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterHealthRoute(r, hb)
	RegisterAdminRoutes(r, hb)
}
