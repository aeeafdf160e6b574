package payout

import (
	"context"
	"errors"
	"time"

	"adspace/models"
	"adspace/services/notification"

	"go.uber.org/zap"
)

// Executor approves proofs and moves tranche money to space owners. Every state change it makes is a
// conditional write, so overlapping sweeps and admin actions never pay a tranche twice.
type Executor struct {
	bookings  BookingStore
	accounts  AccountLookup
	spaces    SpaceLookup
	processor Transferer
	notifier  notification.Notifier
	cfg       ExecutorConfig
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Executor)

// WithClock overrides the executor's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func NewExecutor(
	cfg ExecutorConfig,
	bookings BookingStore,
	accounts AccountLookup,
	spaces SpaceLookup,
	proc Transferer,
	notifier notification.Notifier,
	opts ...Option,
) (*Executor, error) {
	if bookings == nil || accounts == nil || spaces == nil {
		return nil, errors.New("payout executor requires booking, account and space stores")
	}
	if proc == nil {
		return nil, errors.New("payout executor requires a payment processor")
	}
	if notifier == nil {
		return nil, errors.New("payout executor requires a notifier")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("max payout attempts must be positive")
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}

	e := &Executor{
		bookings:  bookings,
		accounts:  accounts,
		spaces:    spaces,
		processor: proc,
		notifier:  notifier,
		cfg:       cfg,
		logger:    zap.L(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Executor) notify(ctx context.Context, userID string, kind models.NotificationType, title, body string, b *models.Booking) {
	if userID == "" {
		return
	}
	e.notifier.Notify(ctx, notification.Message{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   map[string]string{"bookingId": b.ID},
	})
}

func (e *Executor) notifyOperator(ctx context.Context, kind models.NotificationType, title, body string, b *models.Booking) {
	if e.cfg.OperatorUserID == "" {
		e.logger.Warn("No operator configured for escalation",
			zap.String("bookingId", b.ID),
			zap.String("type", string(kind)))
		return
	}
	e.notify(ctx, e.cfg.OperatorUserID, kind, title, body, b)
}

func ptr[T any](v T) *T { return &v }
