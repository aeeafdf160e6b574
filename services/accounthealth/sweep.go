package accounthealth

import (
	"context"
	"fmt"

	"adspace/models"
	"adspace/services/processor"

	"go.uber.org/zap"
)

type SweepReport struct {
	Checked           int      `json:"checked"`
	Disconnected      int      `json:"disconnected"`
	Reconnected       int      `json:"reconnected"`
	Warned            int      `json:"warned"`
	AccountsSuspended int      `json:"accountsSuspended"`
	SpacesSuspended   int64    `json:"spacesSuspended"`
	Errors            []string `json:"errors,omitempty"`
}

// Sweep re-fetches every linked account from the processor, applies the same transition rules as
// webhooks, then enforces the grace period.
func (m *Monitor) Sweep(ctx context.Context) (*SweepReport, error) {
	accounts, err := m.accounts.ListLinkedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	report := &SweepReport{}

	for i := range accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		acct := &accounts[i]
		report.Checked++

		updated, err := m.refresh(ctx, acct, report)
		if err != nil {
			m.logger.Error("Account refresh failed", zap.String("accountId", acct.ID), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", acct.ID, err))
			updated = acct
		}
		if err := m.enforceGrace(ctx, updated, report); err != nil {
			m.logger.Error("Grace period enforcement failed", zap.String("accountId", acct.ID), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", acct.ID, err))
		}
	}

	m.logger.Info("Account health sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("disconnected", report.Disconnected),
		zap.Int("warned", report.Warned),
		zap.Int("accountsSuspended", report.AccountsSuspended),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

func (m *Monitor) refresh(ctx context.Context, acct *models.ConnectedAccount, report *SweepReport) (*models.ConnectedAccount, error) {
	var status models.AccountStatus
	onboarding := acct.OnboardingComplete

	snap, err := m.fetcher.RetrieveAccount(ctx, acct.StripeAccountID)
	switch {
	case processor.IsAccountUnavailable(err):
		status = models.AccountStatusDisabled
	case err != nil:
		return nil, err
	default:
		status = processor.DeriveStatus(snap)
		onboarding = processor.OnboardingComplete(snap)
	}

	wasDisconnected := acct.DisconnectedAt != nil
	updated, err := m.transition(ctx, acct, status, onboarding, true)
	if err != nil {
		return nil, err
	}
	switch {
	case !wasDisconnected && updated.DisconnectedAt != nil:
		report.Disconnected++
	case wasDisconnected && updated.DisconnectedAt == nil:
		report.Reconnected++
	}
	return updated, nil
}

func (m *Monitor) enforceGrace(ctx context.Context, acct *models.ConnectedAccount, report *SweepReport) error {
	if acct.Status == models.AccountStatusActive || acct.DisconnectedAt == nil {
		return nil
	}
	now := m.now()
	elapsed := now.Sub(*acct.DisconnectedAt)

	switch {
	case elapsed >= m.policy.SuspendAfter && acct.SpacesSuspendedAt == nil:
		n, err := m.suspendSpaces(ctx, acct, "payout account disconnected past the grace period")
		if err != nil {
			return err
		}
		if acct.SpacesSuspendedAt != nil {
			report.AccountsSuspended++
			report.SpacesSuspended += n
		}
	case elapsed >= m.policy.WarningAfter && elapsed < m.policy.SuspendAfter && acct.DisconnectNotifiedAt == nil:
		first, err := m.accounts.MarkDisconnectNotified(ctx, acct.ID, now)
		if err != nil {
			return fmt.Errorf("failed to record disconnect warning: %w", err)
		}
		if !first {
			return nil
		}
		remaining := int((m.policy.SuspendAfter-elapsed).Hours()/24 + 0.999)
		m.notify(ctx, acct, models.NotificationAccountWarning,
			"Spaces will be suspended soon",
			fmt.Sprintf("Your payout account is still disconnected. Reconnect within %d day(s) or your spaces will be suspended.", remaining))
		report.Warned++
	}
	return nil
}
