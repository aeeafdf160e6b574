package processor

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventAccountUpdated      = "account.updated"
	EventAccountDeauthorized = "account.application.deauthorized"
)

// Event is a verified processor webhook event. It is one of AccountUpdated, AccountDeauthorized
// or UnhandledEvent.
type Event interface {
	EventID() string
	isEvent()
}

// AccountUpdated carries the full account state after a change.
type AccountUpdated struct {
	ID       string
	Snapshot AccountSnapshot
}

// AccountDeauthorized means the owner revoked the platform's access to their account.
type AccountDeauthorized struct {
	ID        string
	AccountID string
}

// UnhandledEvent is any event type this service does not act on.
type UnhandledEvent struct {
	ID   string
	Type string
}

func (e AccountUpdated) EventID() string      { return e.ID }
func (e AccountDeauthorized) EventID() string { return e.ID }
func (e UnhandledEvent) EventID() string      { return e.ID }

func (AccountUpdated) isEvent()      {}
func (AccountDeauthorized) isEvent() {}
func (UnhandledEvent) isEvent()      {}

// WebhookVerifier authenticates and decodes webhook deliveries.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Parse verifies the signature header against the raw payload and decodes the event.
func (v *WebhookVerifier) Parse(payload []byte, signature string) (Event, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (Event, error) {
	switch string(evt.Type) {
	case EventAccountUpdated:
		if evt.Data == nil {
			return nil, fmt.Errorf("event %s has no data", evt.ID)
		}
		var acct stripe.Account
		if err := json.Unmarshal(evt.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("failed to decode account in event %s: %w", evt.ID, err)
		}
		return AccountUpdated{ID: evt.ID, Snapshot: *snapshotFromAccount(&acct)}, nil
	case EventAccountDeauthorized:
		return AccountDeauthorized{ID: evt.ID, AccountID: evt.Account}, nil
	default:
		return UnhandledEvent{ID: evt.ID, Type: string(evt.Type)}, nil
	}
}
