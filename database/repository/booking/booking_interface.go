package bookingRepo

import (
	"context"
	"time"

	"adspace/models"
)

// BookingRepository defines the booking data access used by the payout executor.
type BookingRepository interface {
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	// FindProofsAwaitingApproval returns CONFIRMED or ACTIVE bookings whose proof is PENDING and was uploaded before the cutoff.
	FindProofsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error)
	// FindCheckpointsAwaitingApproval returns bookings holding an uploaded, unapproved checkpoint older than the cutoff.
	FindCheckpointsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error)
	// FindPendingPayouts returns PENDING payouts still under the attempt cap.
	FindPendingPayouts(ctx context.Context, maxAttempts int) ([]models.Booking, error)
	FindPartiallyPaid(ctx context.Context) ([]models.Booking, error)
	FindNeedingReview(ctx context.Context) ([]models.Booking, error)
	// UpdatePayout applies update only if the booking still satisfies guard.
	UpdatePayout(ctx context.Context, id string, guard models.PayoutGuard, update models.BookingPayoutUpdate) (bool, error)
	ApproveCheckpoint(ctx context.Context, id string, index int, at time.Time) (bool, error)
	MarkCheckpointPaid(ctx context.Context, id string, index int, at time.Time) (bool, error)
}
