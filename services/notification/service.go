package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adspace/models"
	"adspace/services/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Store persists notifications.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	MarkSent(ctx context.Context, id string, at time.Time) error
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DefaultNotificationService stores every notification and queues a push delivery for it.
// Failures are logged and never returned to the caller.
type DefaultNotificationService struct {
	store  Store
	queue  TaskEnqueuer
	logger *zap.Logger
	now    func() time.Time
}

func NewDefaultNotificationService(store Store, queue TaskEnqueuer, logger *zap.Logger) (*DefaultNotificationService, error) {
	if store == nil {
		return nil, errors.New("notification service initialization error: store is nil")
	}
	if logger == nil {
		logger = zap.L()
	}
	return &DefaultNotificationService{store: store, queue: queue, logger: logger, now: time.Now}, nil
}

func (s *DefaultNotificationService) Notify(ctx context.Context, msg Message) {
	if msg.UserID == "" {
		s.logger.Warn("Dropping notification without recipient", zap.String("type", string(msg.Type)))
		return
	}
	if err := s.deliver(ctx, msg); err != nil {
		s.logger.Error("Notification dispatch failed",
			zap.String("userId", msg.UserID),
			zap.String("type", string(msg.Type)),
			zap.Error(err))
	}
}

func (s *DefaultNotificationService) deliver(ctx context.Context, msg Message) error {
	now := s.now()
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    msg.UserID,
		Type:      msg.Type,
		Title:     msg.Title,
		Body:      msg.Body,
		Data:      msg.Data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if s.queue == nil {
		return nil
	}

	data := map[string]string{"type": string(msg.Type), "notificationId": n.ID}
	for k, v := range msg.Data {
		data[k] = v
	}
	task, opts, err := tasks.NewPushTask(models.PushPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Body:           n.Body,
		Data:           data,
	})
	if err != nil {
		return fmt.Errorf("failed to build push task: %w", err)
	}
	if _, err := s.queue.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue push task: %w", err)
	}
	return nil
}
