package accountRepo

import (
	"context"
	"time"

	"adspace/models"
)

// AccountRepository defines connected account data access.
type AccountRepository interface {
	// GetAccountByOwnerID and GetAccountByStripeID return nil when no account matches.
	GetAccountByOwnerID(ctx context.Context, ownerID string) (*models.ConnectedAccount, error)
	GetAccountByStripeID(ctx context.Context, stripeAccountID string) (*models.ConnectedAccount, error)
	ListLinkedAccounts(ctx context.Context) ([]models.ConnectedAccount, error)
	CompareAndSetHealth(ctx context.Context, id string, guard models.AccountHealthGuard, update models.AccountHealthUpdate) (bool, error)
	MarkDisconnectNotified(ctx context.Context, id string, at time.Time) (bool, error)
	MarkSpacesSuspended(ctx context.Context, id string, at time.Time) (bool, error)
}
