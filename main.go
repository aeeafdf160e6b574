package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adspace/config"
	"adspace/cron"
	"adspace/database"
	accountRepo "adspace/database/repository/account"
	bookingRepo "adspace/database/repository/booking"
	notificationRepo "adspace/database/repository/notification"
	spaceRepo "adspace/database/repository/space"
	userRepoPkg "adspace/database/repository/user"
	"adspace/handlers"
	"adspace/routes"
	"adspace/services/accounthealth"
	"adspace/services/notification"
	"adspace/services/payout"
	"adspace/services/pricing"
	"adspace/services/processor"
	"adspace/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func executorConfig(cfg config.Config) payout.ExecutorConfig {
	ec := payout.DefaultExecutorConfig()
	ec.Pricing = pricing.Config{
		PlatformFeeRate:      cfg.PlatformFeeRate,
		ProcessorPercentRate: cfg.ProcessorPercentRate,
		ProcessorFixedFee:    cfg.ProcessorFixedFee,
		MinimumSubtotal:      cfg.MinBookingSubtotal,
		Tolerance:            ec.Pricing.Tolerance,
	}
	if cfg.ProofApprovalWindowHours > 0 {
		ec.ApprovalWindow = time.Duration(cfg.ProofApprovalWindowHours) * time.Hour
	}
	if cfg.MaxPayoutAttempts > 0 {
		ec.MaxAttempts = cfg.MaxPayoutAttempts
	}
	if cfg.PayoutCurrency != "" {
		ec.Currency = cfg.PayoutCurrency
	}
	ec.OperatorUserID = cfg.OperatorUserID
	return ec
}

func healthPolicy(cfg config.Config) accounthealth.Policy {
	p := accounthealth.DefaultPolicy()
	if cfg.DisconnectWarningDays > 0 {
		p.WarningAfter = time.Duration(cfg.DisconnectWarningDays) * 24 * time.Hour
	}
	if cfg.DisconnectSuspendDays > 0 {
		p.SuspendAfter = time.Duration(cfg.DisconnectSuspendDays) * 24 * time.Hour
	}
	return p
}

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	if err := database.InitDB(); err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}
	utils.InitCache()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	utils.StartHealthMonitor(rootCtx, utils.GetCacheClient(), database.MongoClient, 30*time.Second)

	stripeClient, err := processor.NewStripeClient(config.AppConfig.StripeKey, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize Stripe client", zap.Error(err))
	}
	fcm, err := utils.FirebaseInit(rootCtx)
	if err != nil {
		logger.Fatal("main: failed to initialize Firebase", zap.Error(err))
	}

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	accounts := accountRepo.NewMongoAccountRepo()
	spaces := spaceRepo.NewMongoSpaceRepo()
	notifications := notificationRepo.NewMongoNotificationRepo()
	users := userRepoPkg.NewMongoUserRepo()

	// notifications.
	queue := asynq.NewClient(cron.QueueRedisOpt())
	defer queue.Close()

	notifier, err := notification.NewDefaultNotificationService(notifications, queue, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize notification service", zap.Error(err))
	}
	pushSender, err := notification.NewPushSender(users, notifications, fcm, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize push sender", zap.Error(err))
	}
	pushWorker := cron.InitPushWorker(pushSender)

	// payouts and account health.
	executor, err := payout.NewExecutor(executorConfig(config.AppConfig), bookings, accounts, spaces, stripeClient, notifier,
		payout.WithLogger(logger.Named("payout")))
	if err != nil {
		logger.Fatal("main: failed to initialize payout executor", zap.Error(err))
	}
	monitor, err := accounthealth.NewMonitor(healthPolicy(config.AppConfig), accounts, spaces, stripeClient, notifier,
		accounthealth.WithLogger(logger.Named("accounthealth")))
	if err != nil {
		logger.Fatal("main: failed to initialize account health monitor", zap.Error(err))
	}

	deduper := utils.NewEventDeduper(utils.GetCacheClient(), time.Duration(config.AppConfig.WebhookDedupeTTLHours)*time.Hour)
	handlerBundle := handlers.NewHandlerBundle(
		executor,
		monitor,
		processor.NewWebhookVerifier(config.AppConfig.StripeWebhookSecret),
		deduper,
		config.AppConfig.CronSecret,
		config.AppConfig.AdminToken,
		config.AppConfig.MaxRequestsPerMin,
	)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	pushWorker.Shutdown()
	stop()

	logger.Sugar().Info("main: server stopped gracefully")
}
