package payout

import (
	"context"
	"fmt"
	"time"

	"adspace/models"

	"go.uber.org/zap"
)

// RetryPayouts releases tranches that have come due and then attempts every PENDING payout that is
// still under the attempt cap.
func (e *Executor) RetryPayouts(ctx context.Context) (*SweepReport, error) {
	now := e.now()
	report := &SweepReport{}

	e.releaseDuePayouts(ctx, now, report)

	bookings, err := e.bookings.FindPendingPayouts(ctx, e.cfg.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payouts: %w", err)
	}
	report.Candidates = len(bookings)

	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		b := &bookings[i]
		outcome, err := e.settle(ctx, b, now, false)
		if err != nil {
			e.logger.Error("Payout retry failed", zap.String("bookingId", b.ID), zap.Error(err))
			e.deferAfterError(ctx, b, now, err)
			report.recordError(b.ID, err)
			continue
		}
		report.record(outcome)
	}

	e.logger.Info("Payout retry sweep finished",
		zap.Int("released", report.Released),
		zap.Int("candidates", report.Candidates),
		zap.Int("paid", report.Paid),
		zap.Int("deferred", report.Deferred),
		zap.Int("failed", report.Failed),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// ReviewQueue lists bookings parked for manual review.
func (e *Executor) ReviewQueue(ctx context.Context) ([]models.Booking, error) {
	bookings, err := e.bookings.FindNeedingReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load review queue: %w", err)
	}
	return bookings, nil
}

// releaseDuePayouts moves partially paid bookings back to PENDING once another tranche is owed.
func (e *Executor) releaseDuePayouts(ctx context.Context, now time.Time, report *SweepReport) {
	bookings, err := e.bookings.FindPartiallyPaid(ctx)
	if err != nil {
		e.logger.Error("Failed to load partially paid bookings", zap.Error(err))
		report.recordError("release", err)
		return
	}
	for i := range bookings {
		b := &bookings[i]
		if !trancheDue(b, now) {
			continue
		}
		if err := e.markDue(ctx, b, now); err != nil {
			report.recordError(b.ID, err)
			continue
		}
		report.Released++
	}
}

func (e *Executor) markDue(ctx context.Context, b *models.Booking, now time.Time) error {
	_, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{}, models.BookingPayoutUpdate{
		PayoutStatus: ptr(models.PayoutStatusPending),
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("failed to queue due tranche: %w", err)
	}
	e.logger.Info("Tranche due, payout queued", zap.String("bookingId", b.ID))
	return nil
}

// trancheDue reports whether a booking whose first tranche is paid owes another tranche now.
// Unapproved checkpoints are withheld; the final tranche is due once the campaign has ended.
func trancheDue(b *models.Booking, now time.Time) bool {
	if !b.FirstPayoutProcessed {
		return true
	}
	if _, ok := b.NextPayableCheckpoint(); ok {
		return true
	}
	return !b.FinalPayoutProcessed && !now.Before(b.EndDate)
}

func statusAfter(b *models.Booking, now time.Time) models.PayoutStatus {
	if b.FirstPayoutProcessed && b.FinalPayoutProcessed {
		if _, ok := b.NextPayableCheckpoint(); !ok {
			return models.PayoutStatusCompleted
		}
	}
	if trancheDue(b, now) {
		return models.PayoutStatusPending
	}
	return models.PayoutStatusPartiallyPaid
}
