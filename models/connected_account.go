package models

import "time"

type AccountStatus string

const (
	AccountStatusPending    AccountStatus = "PENDING"
	AccountStatusActive     AccountStatus = "ACTIVE"
	AccountStatusRestricted AccountStatus = "RESTRICTED"
	AccountStatusDisabled   AccountStatus = "DISABLED"
)

// ConnectedAccount is a space owner's payout destination on the payment processor.
type ConnectedAccount struct {
	ID                 string        `bson:"id" json:"id"`
	OwnerID            string        `bson:"ownerId" json:"ownerId"`
	StripeAccountID    string        `bson:"stripeAccountId,omitempty" json:"stripeAccountId,omitempty"`
	Status             AccountStatus `bson:"status" json:"status"`
	OnboardingComplete bool          `bson:"onboardingComplete" json:"onboardingComplete"`

	// DisconnectedAt is set once when the account leaves ACTIVE and cleared on return to ACTIVE.
	DisconnectedAt       *time.Time `bson:"disconnectedAt" json:"disconnectedAt,omitempty"`
	DisconnectNotifiedAt *time.Time `bson:"disconnectNotifiedAt" json:"disconnectNotifiedAt,omitempty"`
	SpacesSuspendedAt    *time.Time `bson:"spacesSuspendedAt" json:"spacesSuspendedAt,omitempty"`
	LastHealthCheckAt    *time.Time `bson:"lastHealthCheckAt,omitempty" json:"lastHealthCheckAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PayoutEligible reports whether transfers may be sent to this account.
func (a *ConnectedAccount) PayoutEligible() bool {
	return a != nil &&
		a.StripeAccountID != "" &&
		a.Status == AccountStatusActive &&
		a.OnboardingComplete
}

// AccountHealthUpdate is the complete health state of an account after a status transition.
// Nil timestamps are written as null.
type AccountHealthUpdate struct {
	Status               AccountStatus
	OnboardingComplete   bool
	DisconnectedAt       *time.Time
	DisconnectNotifiedAt *time.Time
	SpacesSuspendedAt    *time.Time
	CheckedAt            time.Time
}

// AccountHealthGuard is the state a transition was computed from.
type AccountHealthGuard struct {
	Status         AccountStatus
	DisconnectedAt *time.Time
}

func (g AccountHealthGuard) Matches(a *ConnectedAccount) bool {
	if a.Status != g.Status {
		return false
	}
	if a.DisconnectedAt == nil || g.DisconnectedAt == nil {
		return a.DisconnectedAt == nil && g.DisconnectedAt == nil
	}
	return a.DisconnectedAt.Equal(*g.DisconnectedAt)
}

func (u AccountHealthUpdate) ApplyTo(a *ConnectedAccount) {
	a.Status = u.Status
	a.OnboardingComplete = u.OnboardingComplete
	a.DisconnectedAt = u.DisconnectedAt
	a.DisconnectNotifiedAt = u.DisconnectNotifiedAt
	a.SpacesSuspendedAt = u.SpacesSuspendedAt
	checked := u.CheckedAt
	a.LastHealthCheckAt = &checked
	a.UpdatedAt = u.CheckedAt
}
