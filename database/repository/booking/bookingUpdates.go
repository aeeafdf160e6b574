package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"adspace/models"

	"go.mongodb.org/mongo-driver/bson"
)

// guardFilter matches the booking only while it is still in the state the caller decided on.
func guardFilter(id string, g models.PayoutGuard) bson.M {
	filter := bson.M{"id": id}
	switch g.Tranche {
	case models.TrancheFirst:
		filter["firstPayoutProcessed"] = bson.M{"$ne": true}
	case models.TrancheFinal:
		filter["finalPayoutProcessed"] = bson.M{"$ne": true}
	case models.TrancheCheckpoint:
		filter["verificationSchedule"] = bson.M{"$elemMatch": bson.M{
			"index":           g.CheckpointIndex,
			"payoutProcessed": bson.M{"$ne": true},
		}}
	}
	if g.ProofStatus != nil {
		filter["proofStatus"] = *g.ProofStatus
	}
	if g.PayoutAttempts != nil {
		filter["payoutAttempts"] = *g.PayoutAttempts
	}
	return filter
}

func payoutSet(u models.BookingPayoutUpdate) bson.M {
	set := bson.M{}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.ProofStatus != nil {
		set["proofStatus"] = *u.ProofStatus
	}
	if u.ProofApprovedAt != nil {
		set["proofApprovedAt"] = *u.ProofApprovedAt
	}
	if u.PayoutStatus != nil {
		set["payoutStatus"] = *u.PayoutStatus
	}
	if u.FirstPayoutProcessed != nil {
		set["firstPayoutProcessed"] = *u.FirstPayoutProcessed
	}
	if u.FirstPayoutAt != nil {
		set["firstPayoutAt"] = *u.FirstPayoutAt
	}
	if u.FirstPayoutAmount != nil {
		set["firstPayoutAmount"] = *u.FirstPayoutAmount
	}
	if u.InstallationPayoutAmount != nil {
		set["installationPayoutAmount"] = *u.InstallationPayoutAmount
	}
	if u.FinalPayoutProcessed != nil {
		set["finalPayoutProcessed"] = *u.FinalPayoutProcessed
	}
	if u.FinalPayoutAt != nil {
		set["finalPayoutAt"] = *u.FinalPayoutAt
	}
	if u.FinalPayoutAmount != nil {
		set["finalPayoutAmount"] = *u.FinalPayoutAmount
	}
	if u.PayoutAttempts != nil {
		set["payoutAttempts"] = *u.PayoutAttempts
	}
	if u.LastPayoutAttemptAt != nil {
		set["lastPayoutAttemptAt"] = *u.LastPayoutAttemptAt
	}
	if u.PayoutError != nil {
		set["payoutError"] = *u.PayoutError
	}
	if u.NeedsReview != nil {
		set["needsReview"] = *u.NeedsReview
	}
	if u.VerificationSchedule != nil {
		set["verificationSchedule"] = *u.VerificationSchedule
	}
	if u.UpdatedAt.IsZero() {
		set["updatedAt"] = time.Now()
	} else {
		set["updatedAt"] = u.UpdatedAt
	}
	return set
}

func (r *MongoBookingRepo) UpdatePayout(ctx context.Context, id string, guard models.PayoutGuard, update models.BookingPayoutUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, guardFilter(id, guard), bson.M{"$set": payoutSet(update)})
	if err != nil {
		return false, fmt.Errorf("error updating payout for booking %s: %w", id, err)
	}
	return res.MatchedCount == 1, nil
}

// ApproveCheckpoint approves an uploaded checkpoint that has not been approved yet.
func (r *MongoBookingRepo) ApproveCheckpoint(ctx context.Context, id string, index int, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": id,
		"verificationSchedule": bson.M{"$elemMatch": bson.M{
			"index":      index,
			"completed":  true,
			"approvedAt": nil,
		}},
	}
	update := bson.M{"$set": bson.M{
		"verificationSchedule.$.approvedAt": at,
		"updatedAt":                         at,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error approving checkpoint %d of booking %s: %w", index, id, err)
	}
	return res.MatchedCount == 1, nil
}

// MarkCheckpointPaid sets the checkpoint's payout flag if it is still unset.
func (r *MongoBookingRepo) MarkCheckpointPaid(ctx context.Context, id string, index int, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := guardFilter(id, models.PayoutGuard{Tranche: models.TrancheCheckpoint, CheckpointIndex: index})
	update := bson.M{"$set": bson.M{
		"verificationSchedule.$.payoutProcessed": true,
		"verificationSchedule.$.payoutAt":        at,
		"updatedAt":                              at,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error recording checkpoint %d payout of booking %s: %w", index, id, err)
	}
	return res.MatchedCount == 1, nil
}
