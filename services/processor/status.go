package processor

import (
	"strings"

	"adspace/models"
)

// Disabled reasons that mean the processor will not pay the account out until it intervenes.
var disablingReasons = []string{"rejected.", "listed", "platform_paused", "under_review"}

// DeriveStatus maps a processor account snapshot onto the platform's account status.
func DeriveStatus(s *AccountSnapshot) models.AccountStatus {
	if s == nil {
		return models.AccountStatusDisabled
	}
	for _, prefix := range disablingReasons {
		if strings.HasPrefix(s.DisabledReason, prefix) {
			return models.AccountStatusDisabled
		}
	}
	if !s.DetailsSubmitted {
		return models.AccountStatusPending
	}
	if !s.PayoutsEnabled || len(s.PastDue) > 0 || len(s.CurrentlyDue) > 0 || s.DisabledReason != "" {
		return models.AccountStatusRestricted
	}
	return models.AccountStatusActive
}

// OnboardingComplete reports whether the owner finished the processor's onboarding.
func OnboardingComplete(s *AccountSnapshot) bool {
	return s != nil && s.DetailsSubmitted
}
