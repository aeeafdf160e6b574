package tasks

import (
	"encoding/json"
	"time"

	"adspace/models"

	"github.com/hibiken/asynq"
)

const TypeSendPush = "notification:push"

func NewPushTask(payload models.PushPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendPush, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}
	if payload.NotificationID != "" {
		opts = append(opts, asynq.TaskID("push:"+payload.NotificationID))
	}
	return task, opts, nil
}

func ParsePushPayload(task *asynq.Task) (models.PushPayload, error) {
	var p models.PushPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
