package cron

import (
	"context"
	"time"

	"adspace/config"
	"adspace/services/notification"
	"adspace/services/tasks"
	"adspace/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection for the push queue.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitPushWorker runs the push delivery worker in the background and returns it for shutdown.
func InitPushWorker(sender *notification.PushSender) *asynq.Server {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendPush, handlePushTask(sender))

	go func() {
		logger.Info("Starting push worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("Push worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("Push worker retry limit reached")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()

	return srv
}

func handlePushTask(sender *notification.PushSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParsePushPayload(task)
		if err != nil {
			utils.GetLogger().Error("Invalid push payload", zap.Error(err))
			return asynq.SkipRetry
		}
		return sender.Send(ctx, p)
	}
}
