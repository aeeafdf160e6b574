package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adspace/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

var ErrNoPushToken = errors.New("user has no push token")

// Messenger is satisfied by *messaging.Client.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PushSender delivers queued notifications through FCM.
type PushSender struct {
	users     UserLookup
	store     Store
	messenger Messenger
	logger    *zap.Logger
}

func NewPushSender(users UserLookup, store Store, messenger Messenger, logger *zap.Logger) (*PushSender, error) {
	if users == nil || store == nil || messenger == nil {
		return nil, errors.New("push sender initialization error: missing dependency")
	}
	if logger == nil {
		logger = zap.L()
	}
	return &PushSender{users: users, store: store, messenger: messenger, logger: logger}, nil
}

// Send pushes a stored notification to the recipient's device. A recipient without a token is not
// an error; the notification stays in their inbox.
func (p *PushSender) Send(ctx context.Context, payload models.PushPayload) error {
	u, err := p.users.GetUserByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("could not find user %s: %w", payload.UserID, err)
	}
	if u == nil || u.FCMToken == "" {
		p.logger.Debug("Skipping push", zap.String("userId", payload.UserID), zap.Error(ErrNoPushToken))
		return nil
	}

	msg := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "payouts",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := p.messenger.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	p.logger.Info("Push sent", zap.String("userId", payload.UserID), zap.String("messageId", id))

	if payload.NotificationID != "" {
		if err := p.store.MarkSent(ctx, payload.NotificationID, time.Now()); err != nil {
			p.logger.Warn("Failed to mark notification sent", zap.String("notificationId", payload.NotificationID), zap.Error(err))
		}
	}
	return nil
}
