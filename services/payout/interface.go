package payout

import (
	"context"
	"time"

	"adspace/models"
	"adspace/services/processor"
)

// BookingStore is the booking persistence the executor needs. Conditional writes report whether
// a document matched; false means another run already changed it.
type BookingStore interface {
	FindProofsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error)
	FindCheckpointsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error)
	FindPendingPayouts(ctx context.Context, maxAttempts int) ([]models.Booking, error)
	FindPartiallyPaid(ctx context.Context) ([]models.Booking, error)
	FindNeedingReview(ctx context.Context) ([]models.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	UpdatePayout(ctx context.Context, id string, guard models.PayoutGuard, update models.BookingPayoutUpdate) (bool, error)
	ApproveCheckpoint(ctx context.Context, id string, index int, at time.Time) (bool, error)
	MarkCheckpointPaid(ctx context.Context, id string, index int, at time.Time) (bool, error)
}

// AccountLookup returns the owner's connected account, or nil when none exists.
type AccountLookup interface {
	GetAccountByOwnerID(ctx context.Context, ownerID string) (*models.ConnectedAccount, error)
}

// SpaceLookup returns a space, or nil when it does not exist.
type SpaceLookup interface {
	GetSpaceByID(ctx context.Context, id string) (*models.Space, error)
}

// Transferer is the part of the payment processor that moves money.
type Transferer interface {
	HasAvailableBalance(ctx context.Context, amount float64, currency string) (bool, error)
	Transfer(ctx context.Context, req processor.TransferRequest) (*processor.TransferResult, error)
}
