package accounthealth

import (
	"time"

	"adspace/models"
)

type transition struct {
	update       models.AccountHealthUpdate
	disconnected bool
	reconnected  bool
}

// applyTransition computes the next health state of a from the processor-reported status.
// Leaving ACTIVE starts a disconnection episode, recorded once; returning to ACTIVE ends it.
func applyTransition(a *models.ConnectedAccount, status models.AccountStatus, onboarding bool, now time.Time) transition {
	t := transition{update: models.AccountHealthUpdate{
		Status:               status,
		OnboardingComplete:   onboarding,
		DisconnectedAt:       a.DisconnectedAt,
		DisconnectNotifiedAt: a.DisconnectNotifiedAt,
		SpacesSuspendedAt:    a.SpacesSuspendedAt,
		CheckedAt:            now,
	}}

	switch {
	case status == models.AccountStatusActive:
		t.reconnected = a.DisconnectedAt != nil
		t.update.DisconnectedAt = nil
		t.update.DisconnectNotifiedAt = nil
		t.update.SpacesSuspendedAt = nil
	case a.Status == models.AccountStatusActive && a.DisconnectedAt == nil:
		at := now
		t.update.DisconnectedAt = &at
		t.disconnected = true
	}
	return t
}
