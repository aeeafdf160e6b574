package accounthealth

import "time"

// Policy is the grace-period policy applied to disconnected accounts.
type Policy struct {
	WarningAfter time.Duration
	SuspendAfter time.Duration
	// MaxTransitionRetries bounds reload-and-retry when a concurrent writer changed the account.
	MaxTransitionRetries int
}

func DefaultPolicy() Policy {
	return Policy{
		WarningAfter:         5 * 24 * time.Hour,
		SuspendAfter:         7 * 24 * time.Hour,
		MaxTransitionRetries: 3,
	}
}
