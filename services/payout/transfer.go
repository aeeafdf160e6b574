package payout

import (
	"context"
	"fmt"
	"slices"
	"time"

	"adspace/models"
	"adspace/services/pricing"
	"adspace/services/processor"

	"go.uber.org/zap"
)

// tranchePlan is the next transfer owed on a booking.
type tranchePlan struct {
	tranche            models.Tranche
	checkpointIndex    int
	rentalAmount       float64
	installationAmount float64
}

func (p *tranchePlan) amount() float64 {
	return pricing.RoundCents(p.rentalAmount + p.installationAmount)
}

func (p *tranchePlan) name() string {
	if p.tranche == models.TrancheCheckpoint {
		return fmt.Sprintf("checkpoint-%d", p.checkpointIndex)
	}
	return string(p.tranche)
}

func (p *tranchePlan) guard() models.PayoutGuard {
	return models.PayoutGuard{Tranche: p.tranche, CheckpointIndex: p.checkpointIndex}
}

// IdempotencyKey identifies a single transfer attempt of a tranche. Retrying the same attempt reuses
// the key, so the processor executes it at most once.
func IdempotencyKey(bookingID, tranche string, attempts int) string {
	return fmt.Sprintf("%s:%s:%d", bookingID, tranche, attempts)
}

// planNextTranche picks the next tranche purely from the booking's idempotency flags: the first
// tranche with installation, then approved checkpoints in order, then the final tranche.
func (e *Executor) planNextTranche(b *models.Booking) (*tranchePlan, error) {
	sched, err := CalculatePayoutSchedule(e.cfg.Tiers, b.TotalDays, b.DailyRate, b.InstallationFee)
	if err != nil {
		return nil, err
	}
	if !b.FirstPayoutProcessed {
		return &tranchePlan{
			tranche:            models.TrancheFirst,
			rentalAmount:       sched.FirstPayout,
			installationAmount: sched.InstallationPayout,
		}, nil
	}
	if cp, ok := b.NextPayableCheckpoint(); ok {
		return &tranchePlan{
			tranche:         models.TrancheCheckpoint,
			checkpointIndex: cp.Index,
			rentalAmount:    cp.PayoutAmount,
		}, nil
	}
	if !b.FinalPayoutProcessed {
		return &tranchePlan{tranche: models.TrancheFinal, rentalAmount: sched.FinalPayout}, nil
	}
	return nil, nil
}

// settle pays the next outstanding tranche of b, if any. When precheckBalance is set an insufficient
// platform balance defers the payout without counting an attempt.
func (e *Executor) settle(ctx context.Context, b *models.Booking, now time.Time, precheckBalance bool) (Outcome, error) {
	plan, err := e.planNextTranche(b)
	if err != nil {
		return e.fail(ctx, b, now, err, false)
	}
	if plan == nil {
		return e.reconcile(ctx, b, now)
	}

	if b.ChargeID == "" {
		return e.park(ctx, b, now)
	}

	account, err := e.checkPayable(ctx, b)
	if IsAccountNotPayable(err) {
		return e.hold(ctx, b, now, err.Error(), OutcomeNotPayable)
	}
	if err != nil {
		return "", err
	}

	if err := pricing.VerifyBookingAmount(e.cfg.Pricing, b, b.InstallationFee); err != nil {
		return e.fail(ctx, b, now, err, false)
	}

	if precheckBalance {
		ok, err := e.processor.HasAvailableBalance(ctx, plan.amount(), e.cfg.Currency)
		if err != nil {
			return e.hold(ctx, b, now, fmt.Sprintf("balance check failed: %v", err), OutcomeDeferred)
		}
		if !ok {
			return e.hold(ctx, b, now, fmt.Sprintf(
				"platform balance cannot cover %.2f %s yet; payout queued for retry", plan.amount(), e.cfg.Currency),
				OutcomeDeferred)
		}
	}

	fresh, err := e.bookings.GetBookingByID(ctx, b.ID)
	if err != nil {
		return "", fmt.Errorf("failed to re-read booking before transfer: %w", err)
	}
	if fresh == nil || !plan.guard().Matches(fresh) {
		e.logger.Info("Tranche already paid by another run",
			zap.String("bookingId", b.ID), zap.String("tranche", plan.name()))
		return OutcomeSkipped, nil
	}

	return e.transfer(ctx, fresh, account, now, plan)
}

func (e *Executor) checkPayable(ctx context.Context, b *models.Booking) (*models.ConnectedAccount, error) {
	account, err := e.accounts.GetAccountByOwnerID(ctx, b.SpaceOwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payout account: %w", err)
	}
	switch {
	case account == nil || account.StripeAccountID == "":
		return nil, &AccountNotPayableError{OwnerID: b.SpaceOwnerID, Reason: "no payout account connected"}
	case account.Status != models.AccountStatusActive:
		return nil, &AccountNotPayableError{OwnerID: b.SpaceOwnerID, Reason: "payout account is " + string(account.Status)}
	case !account.OnboardingComplete:
		return nil, &AccountNotPayableError{OwnerID: b.SpaceOwnerID, Reason: "payout account onboarding incomplete"}
	}

	space, err := e.spaces.GetSpaceByID(ctx, b.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load space: %w", err)
	}
	if space != nil && space.Status == models.SpaceStatusSuspended {
		return nil, &AccountNotPayableError{OwnerID: b.SpaceOwnerID, Reason: "space is suspended"}
	}
	return account, nil
}

func (e *Executor) transfer(ctx context.Context, b *models.Booking, account *models.ConnectedAccount, now time.Time, plan *tranchePlan) (Outcome, error) {
	key := IdempotencyKey(b.ID, plan.name(), b.PayoutAttempts)
	req := processor.TransferRequest{
		Amount:               plan.amount(),
		Currency:             e.cfg.Currency,
		DestinationAccountID: account.StripeAccountID,
		SourceChargeID:       b.ChargeID,
		TransferGroup:        "booking_" + b.ID,
		IdempotencyKey:       key,
		Description:          fmt.Sprintf("%s payout for booking %s", plan.name(), b.ID),
		Metadata: map[string]string{
			"bookingId": b.ID,
			"spaceId":   b.SpaceID,
			"tranche":   plan.name(),
		},
	}

	res, err := e.processor.Transfer(ctx, req)
	if err != nil {
		if processor.IsInsufficientBalance(err) {
			return e.retryLater(ctx, b, now, err)
		}
		return e.fail(ctx, b, now, &ProcessorFailureError{BookingID: b.ID, Tranche: plan.name(), Err: err}, true)
	}

	e.logger.Info("Payout transferred",
		zap.String("bookingId", b.ID),
		zap.String("tranche", plan.name()),
		zap.String("transferId", res.ID),
		zap.Float64("amount", req.Amount),
		zap.String("idempotencyKey", key))
	return e.recordSuccess(ctx, b, now, plan, req.Amount)
}

func (e *Executor) recordSuccess(ctx context.Context, b *models.Booking, now time.Time, plan *tranchePlan, amount float64) (Outcome, error) {
	update := models.BookingPayoutUpdate{
		PayoutError: ptr(""),
		NeedsReview: ptr(false),
		UpdatedAt:   now,
	}
	guard := plan.guard()
	recorded := true
	projected := *b
	projected.VerificationSchedule = slices.Clone(b.VerificationSchedule)

	switch plan.tranche {
	case models.TrancheFirst:
		update.FirstPayoutProcessed = ptr(true)
		update.FirstPayoutAt = ptr(now)
		update.FirstPayoutAmount = ptr(plan.rentalAmount)
		update.InstallationPayoutAmount = ptr(plan.installationAmount)
	case models.TrancheFinal:
		update.FinalPayoutProcessed = ptr(true)
		update.FinalPayoutAt = ptr(now)
		update.FinalPayoutAmount = ptr(plan.rentalAmount)
	case models.TrancheCheckpoint:
		ok, err := e.bookings.MarkCheckpointPaid(ctx, b.ID, plan.checkpointIndex, now)
		if err != nil {
			return "", fmt.Errorf("transfer sent but checkpoint %d not recorded: %w", plan.checkpointIndex, err)
		}
		recorded = ok
		for i := range projected.VerificationSchedule {
			if projected.VerificationSchedule[i].Index == plan.checkpointIndex {
				projected.VerificationSchedule[i].PayoutProcessed = true
				projected.VerificationSchedule[i].PayoutAt = ptr(now)
			}
		}
		guard = models.PayoutGuard{}
	}

	update.ApplyTo(&projected)
	status := statusAfter(&projected, now)
	update.PayoutStatus = &status
	if status == models.PayoutStatusCompleted && !now.Before(b.EndDate) {
		update.Status = ptr(models.BookingStatusCompleted)
	}

	ok, err := e.bookings.UpdatePayout(ctx, b.ID, guard, update)
	if err != nil {
		return "", fmt.Errorf("transfer sent but %s tranche not recorded: %w", plan.name(), err)
	}
	if !ok || !recorded {
		e.logger.Warn("Tranche already recorded by another run",
			zap.String("bookingId", b.ID), zap.String("tranche", plan.name()))
		return OutcomeSkipped, nil
	}

	e.notify(ctx, b.SpaceOwnerID, models.NotificationPayoutSent,
		"Payout sent",
		fmt.Sprintf("%.2f %s is on its way to your account.", amount, e.cfg.Currency), b)
	return OutcomePaid, nil
}

// reconcile settles the payout status of a booking with nothing left to pay.
func (e *Executor) reconcile(ctx context.Context, b *models.Booking, now time.Time) (Outcome, error) {
	if b.PayoutStatus == models.PayoutStatusCompleted {
		return OutcomeSkipped, nil
	}
	_, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{}, models.BookingPayoutUpdate{
		PayoutStatus: ptr(models.PayoutStatusCompleted),
		PayoutError:  ptr(""),
		UpdatedAt:    now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to reconcile payout status: %w", err)
	}
	return OutcomeSkipped, nil
}

// hold leaves the payout PENDING with a reason, without spending an attempt.
func (e *Executor) hold(ctx context.Context, b *models.Booking, now time.Time, reason string, outcome Outcome) (Outcome, error) {
	_, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{}, models.BookingPayoutUpdate{
		PayoutStatus: ptr(models.PayoutStatusPending),
		PayoutError:  ptr(reason),
		UpdatedAt:    now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to record payout hold: %w", err)
	}
	e.logger.Info("Payout held", zap.String("bookingId", b.ID), zap.String("reason", reason))
	return outcome, nil
}

// deferAfterError leaves the payout PENDING with the error recorded so the next retry sweep picks it
// up again. No attempt is counted, so a transfer that went through is retried under the same key.
func (e *Executor) deferAfterError(ctx context.Context, b *models.Booking, now time.Time, cause error) {
	if _, err := e.hold(ctx, b, now, fmt.Sprintf("payout deferred after error: %v", cause), OutcomeDeferred); err != nil {
		e.logger.Error("Failed to queue payout for retry",
			zap.String("bookingId", b.ID), zap.NamedError("cause", cause), zap.Error(err))
	}
}

// park flags a booking without a charge reference for manual review.
func (e *Executor) park(ctx context.Context, b *models.Booking, now time.Time) (Outcome, error) {
	cause := &MissingChargeReferenceError{BookingID: b.ID}
	attempts := b.PayoutAttempts + 1
	ok, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{PayoutAttempts: ptr(b.PayoutAttempts)}, models.BookingPayoutUpdate{
		PayoutStatus:        ptr(models.PayoutStatusPending),
		PayoutAttempts:      &attempts,
		LastPayoutAttemptAt: ptr(now),
		PayoutError:         ptr(cause.Error()),
		NeedsReview:         ptr(true),
		UpdatedAt:           now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to park booking: %w", err)
	}
	if !ok {
		return OutcomeSkipped, nil
	}

	e.logger.Warn("Payout parked for review", zap.String("bookingId", b.ID), zap.Error(cause))
	if !b.NeedsReview {
		e.notifyOperator(ctx, models.NotificationPayoutNeedsReview,
			"Payout needs review", cause.Error(), b)
	}
	e.notifyIfCapped(ctx, b, attempts)
	return OutcomeParked, nil
}

// retryLater records a transfer refused for insufficient balance. The payout stays PENDING until the
// attempt cap is reached.
func (e *Executor) retryLater(ctx context.Context, b *models.Booking, now time.Time, cause error) (Outcome, error) {
	attempts := b.PayoutAttempts + 1
	reason := fmt.Sprintf("%v (attempt %d of %d)", cause, attempts, e.cfg.MaxAttempts)
	ok, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{PayoutAttempts: ptr(b.PayoutAttempts)}, models.BookingPayoutUpdate{
		PayoutStatus:        ptr(models.PayoutStatusPending),
		PayoutAttempts:      &attempts,
		LastPayoutAttemptAt: ptr(now),
		PayoutError:         &reason,
		UpdatedAt:           now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to record payout attempt: %w", err)
	}
	if !ok {
		return OutcomeSkipped, nil
	}

	e.logger.Warn("Payout deferred for insufficient balance",
		zap.String("bookingId", b.ID), zap.Int("attempts", attempts))
	e.notifyIfCapped(ctx, b, attempts)
	return OutcomeDeferred, nil
}

func (e *Executor) notifyIfCapped(ctx context.Context, b *models.Booking, attempts int) {
	if attempts != e.cfg.MaxAttempts {
		return
	}
	e.logger.Error("Payout retry cap reached", zap.String("bookingId", b.ID), zap.Int("attempts", attempts))
	e.notifyOperator(ctx, models.NotificationPayoutRetryCapped,
		"Payout retries exhausted",
		fmt.Sprintf("Booking %s reached %d payout attempts and will not be retried automatically.", b.ID, attempts), b)
}

// fail marks the payout FAILED and escalates. Failed payouts are not retried automatically.
func (e *Executor) fail(ctx context.Context, b *models.Booking, now time.Time, cause error, attempted bool) (Outcome, error) {
	update := models.BookingPayoutUpdate{
		PayoutStatus: ptr(models.PayoutStatusFailed),
		PayoutError:  ptr(cause.Error()),
		UpdatedAt:    now,
	}
	if attempted {
		update.PayoutAttempts = ptr(b.PayoutAttempts + 1)
		update.LastPayoutAttemptAt = ptr(now)
	}
	if _, err := e.bookings.UpdatePayout(ctx, b.ID, models.PayoutGuard{}, update); err != nil {
		return "", fmt.Errorf("failed to record payout failure: %w", err)
	}

	e.logger.Error("Payout failed", zap.String("bookingId", b.ID), zap.Error(cause))
	if pricing.IsAmountMismatch(cause) {
		e.notifyOperator(ctx, models.NotificationAmountMismatch,
			"Booking amount mismatch", cause.Error(), b)
		return OutcomeFailed, nil
	}
	e.notify(ctx, b.AdvertiserID, models.NotificationPayoutFailed,
		"Payout problem",
		"We could not complete a payout for your booking. Our team has been notified.", b)
	e.notifyOperator(ctx, models.NotificationPayoutFailed, "Payout failed", cause.Error(), b)
	return OutcomeFailed, nil
}
