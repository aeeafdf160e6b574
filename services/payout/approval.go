package payout

import (
	"context"
	"fmt"
	"time"

	"adspace/models"

	"go.uber.org/zap"
)

// ApproveProofs auto-approves every pending installation proof older than the approval window and
// pays the first tranche together with the installation fee. It also approves checkpoint proofs
// that have waited the same window.
func (e *Executor) ApproveProofs(ctx context.Context) (*SweepReport, error) {
	now := e.now()
	cutoff := now.Add(-e.cfg.ApprovalWindow)
	report := &SweepReport{}

	bookings, err := e.bookings.FindProofsAwaitingApproval(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings awaiting proof approval: %w", err)
	}
	report.Candidates = len(bookings)

	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		b := &bookings[i]
		approved, outcome, err := e.approveProof(ctx, b, now)
		if approved {
			report.ProofsApproved++
		}
		if err != nil {
			e.logger.Error("Proof approval failed", zap.String("bookingId", b.ID), zap.Error(err))
			report.recordError(b.ID, err)
			continue
		}
		report.record(outcome)
	}

	e.approveCheckpoints(ctx, cutoff, now, report)

	e.logger.Info("Proof approval sweep finished",
		zap.Int("candidates", report.Candidates),
		zap.Int("approved", report.ProofsApproved),
		zap.Int("checkpointsApproved", report.CheckpointsApproved),
		zap.Int("paid", report.Paid),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// ApproveProof approves a booking's installation proof out of band and attempts the first payout.
func (e *Executor) ApproveProof(ctx context.Context, bookingID string) (Outcome, error) {
	b, err := e.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return "", fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	if b == nil {
		return "", ErrBookingNotFound
	}
	if b.ProofStatus == nil {
		return "", ErrProofNotUploaded
	}
	if b.Status == models.BookingStatusDisputed || b.Status == models.BookingStatusCancelled {
		return "", ErrBookingNotApprovable
	}
	if *b.ProofStatus == models.ProofStatusApproved {
		return OutcomeSkipped, nil
	}

	_, outcome, err := e.approveProof(ctx, b, e.now())
	return outcome, err
}

func (e *Executor) approveProof(ctx context.Context, b *models.Booking, now time.Time) (bool, Outcome, error) {
	if b.ProofStatus == nil {
		return false, "", ErrProofNotUploaded
	}
	expected := *b.ProofStatus

	update := models.BookingPayoutUpdate{
		ProofStatus:     ptr(models.ProofStatusApproved),
		ProofApprovedAt: ptr(now),
		Status:          ptr(models.BookingStatusActive),
		UpdatedAt:       now,
	}
	// Queued in the same write so the retry sweep owns the payout if anything below fails.
	if !b.FirstPayoutProcessed {
		update.PayoutStatus = ptr(models.PayoutStatusPending)
	}
	if len(b.VerificationSchedule) == 0 {
		if sched, err := CalculatePayoutSchedule(e.cfg.Tiers, b.TotalDays, b.DailyRate, b.InstallationFee); err == nil {
			if checkpoints := BuildVerificationSchedule(e.cfg.Tiers, b.StartDate, b.TotalDays, sched); len(checkpoints) > 0 {
				update.VerificationSchedule = &checkpoints
			}
		}
	}

	ok, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{ProofStatus: &expected}, update)
	if err != nil {
		return false, "", fmt.Errorf("failed to approve proof: %w", err)
	}
	if !ok {
		e.logger.Info("Proof already handled by another run", zap.String("bookingId", b.ID))
		return false, OutcomeSkipped, nil
	}
	update.ApplyTo(b)

	e.notify(ctx, b.SpaceOwnerID, models.NotificationProofApproved,
		"Installation approved",
		"Your installation proof was approved. Your first payout is on its way.", b)

	outcome, err := e.settle(ctx, b, now, true)
	if err != nil {
		e.deferAfterError(ctx, b, now, err)
		return true, OutcomeDeferred, err
	}
	return true, outcome, nil
}

func (e *Executor) approveCheckpoints(ctx context.Context, cutoff, now time.Time, report *SweepReport) {
	bookings, err := e.bookings.FindCheckpointsAwaitingApproval(ctx, cutoff)
	if err != nil {
		e.logger.Error("Failed to load checkpoints awaiting approval", zap.Error(err))
		report.recordError("checkpoints", err)
		return
	}

	for i := range bookings {
		b := &bookings[i]
		approvedAny := false
		for j := range b.VerificationSchedule {
			cp := &b.VerificationSchedule[j]
			if !cp.Completed || cp.ApprovedAt != nil || cp.UploadedAt == nil || !cp.UploadedAt.Before(cutoff) {
				continue
			}
			ok, err := e.bookings.ApproveCheckpoint(ctx, b.ID, cp.Index, now)
			if err != nil {
				e.logger.Error("Checkpoint approval failed",
					zap.String("bookingId", b.ID), zap.Int("checkpoint", cp.Index), zap.Error(err))
				report.recordError(b.ID, err)
				continue
			}
			if ok {
				cp.ApprovedAt = ptr(now)
				approvedAny = true
				report.CheckpointsApproved++
			}
		}

		if !approvedAny || !b.FirstPayoutProcessed {
			continue
		}
		if b.PayoutStatus != models.PayoutStatusPartiallyPaid && b.PayoutStatus != models.PayoutStatusCompleted {
			continue
		}
		if _, ok := b.NextPayableCheckpoint(); ok {
			if err := e.markDue(ctx, b, now); err != nil {
				report.recordError(b.ID, err)
			}
		}
	}
}
