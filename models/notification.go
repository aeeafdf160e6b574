package models

import "time"

type NotificationType string

const (
	NotificationPayoutSent         NotificationType = "payout_sent"
	NotificationPayoutFailed       NotificationType = "payout_failed"
	NotificationPayoutNeedsReview  NotificationType = "payout_needs_review"
	NotificationPayoutRetryCapped  NotificationType = "payout_retry_capped"
	NotificationAmountMismatch     NotificationType = "payout_amount_mismatch"
	NotificationProofApproved      NotificationType = "proof_approved"
	NotificationAccountDisconnect  NotificationType = "account_disconnected"
	NotificationAccountWarning     NotificationType = "account_disconnect_warning"
	NotificationSpacesSuspended    NotificationType = "spaces_suspended"
	NotificationAccountReconnected NotificationType = "account_reconnected"
)

type Notification struct {
	ID        string            `bson:"id" json:"id"`
	UserID    string            `bson:"userId" json:"userId"`
	Type      NotificationType  `bson:"type" json:"type"`
	Title     string            `bson:"title" json:"title"`
	Body      string            `bson:"body" json:"body"`
	Data      map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Sent      bool              `bson:"sent" json:"sent"`
	Read      bool              `bson:"read" json:"read"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// PushPayload is the asynq task body for delivering a stored notification as a push message.
type PushPayload struct {
	NotificationID string            `json:"notificationId"`
	UserID         string            `json:"userId"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
}
