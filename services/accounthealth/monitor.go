package accounthealth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adspace/models"
	"adspace/services/notification"
	"adspace/services/processor"

	"go.uber.org/zap"
)

var ErrTransitionConflict = errors.New("account changed concurrently; transition not applied")

// Monitor keeps connected account status in line with the processor and enforces the grace
// period on owners whose account has gone unhealthy.
type Monitor struct {
	accounts AccountStore
	spaces   SpaceSuspender
	fetcher  AccountFetcher
	notifier notification.Notifier
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

func NewMonitor(policy Policy, accounts AccountStore, spaces SpaceSuspender, fetcher AccountFetcher, notifier notification.Notifier, opts ...Option) (*Monitor, error) {
	if accounts == nil || spaces == nil || fetcher == nil || notifier == nil {
		return nil, errors.New("account health monitor is missing a dependency")
	}
	if policy.MaxTransitionRetries <= 0 {
		policy.MaxTransitionRetries = 1
	}
	m := &Monitor{
		accounts: accounts,
		spaces:   spaces,
		fetcher:  fetcher,
		notifier: notifier,
		policy:   policy,
		logger:   zap.L(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// HandleEvent applies a verified processor webhook event.
func (m *Monitor) HandleEvent(ctx context.Context, evt processor.Event) error {
	switch e := evt.(type) {
	case processor.AccountUpdated:
		return m.applySnapshot(ctx, &e.Snapshot)
	case processor.AccountDeauthorized:
		return m.deauthorize(ctx, e.AccountID)
	case processor.UnhandledEvent:
		m.logger.Debug("Ignoring processor event", zap.String("eventId", e.ID), zap.String("type", e.Type))
		return nil
	default:
		return fmt.Errorf("unsupported event %T", evt)
	}
}

func (m *Monitor) applySnapshot(ctx context.Context, snap *processor.AccountSnapshot) error {
	acct, err := m.accounts.GetAccountByStripeID(ctx, snap.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", snap.AccountID, err)
	}
	if acct == nil {
		m.logger.Warn("Account event for unknown account", zap.String("stripeAccountId", snap.AccountID))
		return nil
	}
	_, err = m.transition(ctx, acct, processor.DeriveStatus(snap), processor.OnboardingComplete(snap), true)
	return err
}

func (m *Monitor) deauthorize(ctx context.Context, stripeAccountID string) error {
	acct, err := m.accounts.GetAccountByStripeID(ctx, stripeAccountID)
	if err != nil {
		return fmt.Errorf("failed to load account %s: %w", stripeAccountID, err)
	}
	if acct == nil {
		m.logger.Warn("Deauthorization for unknown account", zap.String("stripeAccountId", stripeAccountID))
		return nil
	}

	// Spaces are suspended right away, so the owner gets the suspension notice instead of a grace period.
	updated, err := m.transition(ctx, acct, models.AccountStatusDisabled, acct.OnboardingComplete, false)
	if err != nil {
		return err
	}
	_, err = m.suspendSpaces(ctx, updated, "payout account access was revoked")
	return err
}

// transition persists the next state with a compare-and-set, reloading and recomputing when another
// writer got there first. graceNotice controls whether a new disconnection announces the grace period.
func (m *Monitor) transition(ctx context.Context, acct *models.ConnectedAccount, status models.AccountStatus, onboarding, graceNotice bool) (*models.ConnectedAccount, error) {
	current := acct
	for range m.policy.MaxTransitionRetries {
		now := m.now()
		t := applyTransition(current, status, onboarding, now)
		guard := models.AccountHealthGuard{Status: current.Status, DisconnectedAt: current.DisconnectedAt}

		ok, err := m.accounts.CompareAndSetHealth(ctx, current.ID, guard, t.update)
		if err != nil {
			return nil, fmt.Errorf("failed to update account %s: %w", current.ID, err)
		}
		if ok {
			previous := current.Status
			next := *current
			t.update.ApplyTo(&next)
			m.afterTransition(ctx, &next, previous, t, graceNotice)
			return &next, nil
		}

		fresh, err := m.accounts.GetAccountByStripeID(ctx, current.StripeAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload account %s: %w", current.ID, err)
		}
		if fresh == nil {
			return nil, fmt.Errorf("account %s disappeared during update", current.ID)
		}
		current = fresh
	}
	return nil, ErrTransitionConflict
}

func (m *Monitor) afterTransition(ctx context.Context, acct *models.ConnectedAccount, previous models.AccountStatus, t transition, graceNotice bool) {
	if previous != acct.Status {
		m.logger.Info("Account status changed",
			zap.String("accountId", acct.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(acct.Status)))
	}
	switch {
	case t.disconnected && graceNotice:
		m.notify(ctx, acct, models.NotificationAccountDisconnect,
			"Payout account needs attention",
			fmt.Sprintf("Your payout account is %s. Reconnect within %d days to keep your spaces listed.",
				acct.Status, int(m.policy.SuspendAfter.Hours()/24)))
	case t.reconnected:
		m.notify(ctx, acct, models.NotificationAccountReconnected,
			"Payout account reconnected",
			"Your payout account is active again and payouts will resume.")
	}
}

// suspendSpaces suspends the owner's ACTIVE spaces and records the episode's suspension once.
func (m *Monitor) suspendSpaces(ctx context.Context, acct *models.ConnectedAccount, reason string) (int64, error) {
	now := m.now()
	n, err := m.spaces.SuspendActiveSpaces(ctx, acct.OwnerID, reason, now)
	if err != nil {
		return 0, fmt.Errorf("failed to suspend spaces of owner %s: %w", acct.OwnerID, err)
	}
	first, err := m.accounts.MarkSpacesSuspended(ctx, acct.ID, now)
	if err != nil {
		return n, fmt.Errorf("failed to record suspension for account %s: %w", acct.ID, err)
	}
	if first {
		acct.SpacesSuspendedAt = &now
		m.logger.Warn("Spaces suspended", zap.String("ownerId", acct.OwnerID), zap.Int64("spaces", n), zap.String("reason", reason))
		m.notify(ctx, acct, models.NotificationSpacesSuspended,
			"Spaces suspended",
			"Your spaces were suspended because your payout account is not active. Reconnect it and contact support to relist them.")
	}
	return n, nil
}

func (m *Monitor) notify(ctx context.Context, acct *models.ConnectedAccount, kind models.NotificationType, title, body string) {
	m.notifier.Notify(ctx, notification.Message{
		UserID: acct.OwnerID,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   map[string]string{"accountId": acct.ID},
	})
}
