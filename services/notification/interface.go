package notification

import (
	"context"

	"adspace/models"
)

// Message is a notification addressed to a single user.
type Message struct {
	UserID string
	Type   models.NotificationType
	Title  string
	Body   string
	Data   map[string]string
}

// Notifier dispatches notifications without blocking or failing the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}
