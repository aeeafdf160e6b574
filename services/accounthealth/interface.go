package accounthealth

import (
	"context"
	"time"

	"adspace/models"
	"adspace/services/processor"
)

type AccountStore interface {
	GetAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.ConnectedAccount, error)
	// ListLinkedAccounts returns every account that has an external processor identifier.
	ListLinkedAccounts(ctx context.Context) ([]models.ConnectedAccount, error)
	CompareAndSetHealth(ctx context.Context, id string, guard models.AccountHealthGuard, update models.AccountHealthUpdate) (bool, error)
	// MarkDisconnectNotified and MarkSpacesSuspended only write when the marker is still null.
	MarkDisconnectNotified(ctx context.Context, id string, at time.Time) (bool, error)
	MarkSpacesSuspended(ctx context.Context, id string, at time.Time) (bool, error)
}

type SpaceSuspender interface {
	SuspendActiveSpaces(ctx context.Context, ownerID, reason string, at time.Time) (int64, error)
}

type AccountFetcher interface {
	RetrieveAccount(ctx context.Context, accountID string) (*processor.AccountSnapshot, error)
}
