package bookingRepo

import (
	"context"
	"time"

	"adspace/models"

	"go.mongodb.org/mongo-driver/bson"
)

var notPayableStatuses = bson.A{models.BookingStatusDisputed, models.BookingStatusCancelled}

func proofsAwaitingApprovalFilter(uploadedBefore time.Time) bson.M {
	return bson.M{
		"proofStatus":     models.ProofStatusPending,
		"proofUploadedAt": bson.M{"$lt": uploadedBefore},
		"status":          bson.M{"$in": bson.A{models.BookingStatusConfirmed, models.BookingStatusActive}},
	}
}

func checkpointsAwaitingApprovalFilter(uploadedBefore time.Time) bson.M {
	return bson.M{
		"status": bson.M{"$nin": notPayableStatuses},
		"verificationSchedule": bson.M{"$elemMatch": bson.M{
			"completed":  true,
			"approvedAt": nil,
			"uploadedAt": bson.M{"$lt": uploadedBefore},
		}},
	}
}

func pendingPayoutsFilter(maxAttempts int) bson.M {
	return bson.M{
		"payoutStatus":   models.PayoutStatusPending,
		"payoutAttempts": bson.M{"$lt": maxAttempts},
		"status":         bson.M{"$nin": notPayableStatuses},
	}
}

func (r *MongoBookingRepo) FindProofsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error) {
	return r.find(ctx, proofsAwaitingApprovalFilter(uploadedBefore))
}

func (r *MongoBookingRepo) FindCheckpointsAwaitingApproval(ctx context.Context, uploadedBefore time.Time) ([]models.Booking, error) {
	return r.find(ctx, checkpointsAwaitingApprovalFilter(uploadedBefore))
}

func (r *MongoBookingRepo) FindPendingPayouts(ctx context.Context, maxAttempts int) ([]models.Booking, error) {
	return r.find(ctx, pendingPayoutsFilter(maxAttempts))
}

func (r *MongoBookingRepo) FindPartiallyPaid(ctx context.Context) ([]models.Booking, error) {
	return r.find(ctx, bson.M{
		"payoutStatus": models.PayoutStatusPartiallyPaid,
		"status":       bson.M{"$nin": notPayableStatuses},
	})
}

func (r *MongoBookingRepo) FindNeedingReview(ctx context.Context) ([]models.Booking, error) {
	return r.find(ctx, bson.M{"needsReview": true})
}
