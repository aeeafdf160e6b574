package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"adspace/models"
	"adspace/services/pricing"
	"adspace/services/processor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	exec  *Executor
	store *fakeBookingStore
	proc  *mockTransferer
	notes *recordingNotifier
}

func newHarness(t *testing.T, accounts AccountLookup, spaces fakeSpaces, bookings ...models.Booking) *harness {
	t.Helper()
	if accounts == nil {
		accounts = fakeAccounts{"own-1": activeAccount()}
	}
	if spaces == nil {
		spaces = fakeSpaces{"sp-1": {ID: "sp-1", OwnerID: "own-1", Status: models.SpaceStatusActive}}
	}

	cfg := DefaultExecutorConfig()
	cfg.OperatorUserID = "ops-1"

	h := &harness{
		store: newFakeBookingStore(bookings...),
		proc:  &mockTransferer{},
		notes: &recordingNotifier{},
	}
	exec, err := NewExecutor(cfg, h.store, accounts, spaces, h.proc, h.notes,
		WithClock(func() time.Time { return testNow }),
		WithLogger(zap.NewNop()))
	require.NoError(t, err)
	h.exec = exec
	return h
}

func activeAccount() *models.ConnectedAccount {
	return &models.ConnectedAccount{
		ID:                 "ca-1",
		OwnerID:            "own-1",
		StripeAccountID:    "acct_1",
		Status:             models.AccountStatusActive,
		OnboardingComplete: true,
	}
}

// testBooking is a ten day booking at 100/day with a 50 installation fee, proof uploaded 49 hours ago.
func testBooking(t *testing.T) models.Booking {
	t.Helper()
	return bookingFor(t, 100, 10, 50)
}

func bookingFor(t *testing.T, rate float64, days int, install float64) models.Booking {
	t.Helper()
	cost, err := pricing.CalculateBookingCost(pricing.DefaultConfig(), rate, days, install)
	require.NoError(t, err)

	start := testNow.AddDate(0, 0, -3)
	return models.Booking{
		ID:               "bk-1",
		AdvertiserID:     "adv-1",
		SpaceID:          "sp-1",
		SpaceOwnerID:     "own-1",
		DailyRate:        rate,
		InstallationFee:  install,
		TotalDays:        days,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, days),
		Subtotal:         cost.Subtotal,
		PlatformFee:      cost.PlatformFee,
		ProcessorFee:     cost.ProcessorFee,
		TotalCharged:     cost.TotalCharged,
		SpaceOwnerAmount: cost.SpaceOwnerAmount,
		Status:           models.BookingStatusConfirmed,
		ProofStatus:      ptr(models.ProofStatusPending),
		ProofUploadedAt:  ptr(testNow.Add(-49 * time.Hour)),
		PayoutStatus:     models.PayoutStatusUnscheduled,
		ChargeID:         "ch_1",
	}
}

// pendingRetry turns b into an approved booking waiting on its first payout.
func pendingRetry(b models.Booking) models.Booking {
	b.ProofStatus = ptr(models.ProofStatusApproved)
	b.ProofApprovedAt = ptr(testNow.Add(-time.Hour))
	b.Status = models.BookingStatusActive
	b.PayoutStatus = models.PayoutStatusPending
	return b
}

func transferOK(id string) *processor.TransferResult {
	return &processor.TransferResult{ID: id}
}

func TestApproveProofsPaysFirstTrancheWithInstallation(t *testing.T) {
	h := newHarness(t, nil, nil, testBooking(t))
	h.proc.On("HasAvailableBalance", mock.Anything, 550.0, "usd").Return(true, nil)
	h.proc.On("Transfer", mock.Anything, mock.MatchedBy(func(r processor.TransferRequest) bool {
		return r.Amount == 550 &&
			r.IdempotencyKey == "bk-1:first:0" &&
			r.DestinationAccountID == "acct_1" &&
			r.SourceChargeID == "ch_1"
	})).Return(transferOK("tr_1"), nil).Once()

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProofsApproved)
	assert.Equal(t, 1, report.Paid)

	b := h.store.get("bk-1")
	assert.Equal(t, models.ProofStatusApproved, *b.ProofStatus)
	assert.Equal(t, models.BookingStatusActive, b.Status)
	assert.True(t, b.FirstPayoutProcessed)
	assert.InDelta(t, 500, b.FirstPayoutAmount, 0.001)
	assert.InDelta(t, 50, b.InstallationPayoutAmount, 0.001)
	assert.Equal(t, models.PayoutStatusPartiallyPaid, b.PayoutStatus)
	assert.Zero(t, b.PayoutAttempts)
	assert.Equal(t, 1, h.notes.count("own-1", models.NotificationProofApproved))
	assert.Equal(t, 1, h.notes.count("own-1", models.NotificationPayoutSent))

	report, err = h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Candidates)
	h.proc.AssertNumberOfCalls(t, "Transfer", 1)
}

func TestApproveProofsRespectsWindowAndDisputes(t *testing.T) {
	recent := testBooking(t)
	recent.ProofUploadedAt = ptr(testNow.Add(-47 * time.Hour))

	disputed := testBooking(t)
	disputed.ID = "bk-2"
	disputed.Status = models.BookingStatusDisputed

	h := newHarness(t, nil, nil, recent, disputed)

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Candidates)
	assert.Equal(t, models.ProofStatusPending, *h.store.get("bk-1").ProofStatus)
	assert.Equal(t, models.ProofStatusPending, *h.store.get("bk-2").ProofStatus)
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestApproveProofsWithoutAccountLeavesPayoutPending(t *testing.T) {
	h := newHarness(t, fakeAccounts{}, nil, testBooking(t))

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProofsApproved)
	assert.Equal(t, 1, report.NotPayable)

	b := h.store.get("bk-1")
	assert.Equal(t, models.ProofStatusApproved, *b.ProofStatus)
	assert.Equal(t, models.PayoutStatusPending, b.PayoutStatus)
	assert.Contains(t, b.PayoutError, "no payout account")
	assert.Zero(t, b.PayoutAttempts)
	h.proc.AssertNotCalled(t, "HasAvailableBalance", mock.Anything, mock.Anything, mock.Anything)
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestApproveProofsDefersOnInsufficientBalance(t *testing.T) {
	h := newHarness(t, nil, nil, testBooking(t))
	h.proc.On("HasAvailableBalance", mock.Anything, 550.0, "usd").Return(false, nil)

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deferred)

	b := h.store.get("bk-1")
	assert.Equal(t, models.PayoutStatusPending, b.PayoutStatus)
	assert.Contains(t, b.PayoutError, "platform balance")
	assert.Zero(t, b.PayoutAttempts)
	assert.False(t, b.FirstPayoutProcessed)
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestApproveProofsPersistsVerificationSchedule(t *testing.T) {
	h := newHarness(t, fakeAccounts{}, nil, bookingFor(t, 100, 45, 0))

	_, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)

	b := h.store.get("bk-1")
	require.Len(t, b.VerificationSchedule, 6)
	assert.InDelta(t, 270, b.VerificationSchedule[0].PayoutAmount, 0.001)
	assert.Zero(t, b.VerificationSchedule[5].PayoutAmount)
}

func TestRetryPayoutsIsIdempotentAcrossSweeps(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	h.proc.On("Transfer", mock.Anything, mock.Anything).Return(transferOK("tr_1"), nil).Once()

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Paid)
	assert.Equal(t, models.PayoutStatusPartiallyPaid, h.store.get("bk-1").PayoutStatus)

	report, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Paid)
	h.proc.AssertNumberOfCalls(t, "Transfer", 1)
	h.proc.AssertNotCalled(t, "HasAvailableBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryPayoutsStopsAtAttemptCap(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	insufficient := &processor.Error{Op: "transfer", Code: "balance_insufficient", Err: processor.ErrInsufficientBalance}
	h.proc.On("Transfer", mock.Anything, mock.Anything).Return(nil, insufficient)

	for range 11 {
		_, err := h.exec.RetryPayouts(context.Background())
		require.NoError(t, err)
	}

	h.proc.AssertNumberOfCalls(t, "Transfer", 10)
	b := h.store.get("bk-1")
	assert.Equal(t, 10, b.PayoutAttempts)
	assert.Equal(t, models.PayoutStatusPending, b.PayoutStatus)
	assert.False(t, b.FirstPayoutProcessed)
	assert.Equal(t, 1, h.notes.count("ops-1", models.NotificationPayoutRetryCapped))

	keys := h.proc.idempotencyKeys()
	require.Len(t, keys, 10)
	assert.Equal(t, "bk-1:first:0", keys[0])
	assert.Equal(t, "bk-1:first:9", keys[9])
}

func TestRetryPayoutsParksMissingChargeReference(t *testing.T) {
	b := pendingRetry(testBooking(t))
	b.ChargeID = ""
	h := newHarness(t, nil, nil, b)

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Parked)

	_, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)

	stored := h.store.get("bk-1")
	assert.True(t, stored.NeedsReview)
	assert.Equal(t, 2, stored.PayoutAttempts)
	assert.Equal(t, models.PayoutStatusPending, stored.PayoutStatus)
	assert.Contains(t, stored.PayoutError, "charge reference")
	assert.Equal(t, 1, h.notes.count("ops-1", models.NotificationPayoutNeedsReview))
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)

	queue, err := h.exec.ReviewQueue(context.Background())
	require.NoError(t, err)
	assert.Len(t, queue, 1)
}

func TestRetryPayoutsMarksProcessorFailure(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	h.proc.On("Transfer", mock.Anything, mock.Anything).
		Return(nil, &processor.Error{Op: "transfer", Err: errors.New("destination account closed")}).Once()

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	b := h.store.get("bk-1")
	assert.Equal(t, models.PayoutStatusFailed, b.PayoutStatus)
	assert.Contains(t, b.PayoutError, "destination account closed")
	assert.Equal(t, 1, b.PayoutAttempts)
	assert.Equal(t, 1, h.notes.count("adv-1", models.NotificationPayoutFailed))
	assert.Equal(t, 1, h.notes.count("ops-1", models.NotificationPayoutFailed))

	_, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	h.proc.AssertNumberOfCalls(t, "Transfer", 1)
}

func TestRetryPayoutsRejectsTamperedAmounts(t *testing.T) {
	b := pendingRetry(testBooking(t))
	b.TotalCharged += 5
	h := newHarness(t, nil, nil, b)

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	stored := h.store.get("bk-1")
	assert.Equal(t, models.PayoutStatusFailed, stored.PayoutStatus)
	assert.Contains(t, stored.PayoutError, "totalCharged")
	assert.Equal(t, 1, h.notes.count("ops-1", models.NotificationAmountMismatch))
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestRetryPayoutsHoldsSuspendedSpace(t *testing.T) {
	spaces := fakeSpaces{"sp-1": {ID: "sp-1", OwnerID: "own-1", Status: models.SpaceStatusSuspended}}
	h := newHarness(t, nil, spaces, pendingRetry(testBooking(t)))

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.NotPayable)

	b := h.store.get("bk-1")
	assert.Equal(t, models.PayoutStatusPending, b.PayoutStatus)
	assert.Contains(t, b.PayoutError, "suspended")
	assert.Zero(t, b.PayoutAttempts)
}

func TestRetryPayoutsPaysFinalTrancheAfterCampaignEnds(t *testing.T) {
	b := pendingRetry(testBooking(t))
	b.StartDate = testNow.AddDate(0, 0, -11)
	b.EndDate = testNow.Add(-time.Hour)
	b.FirstPayoutProcessed = true
	b.FirstPayoutAt = ptr(testNow.AddDate(0, 0, -8))
	b.PayoutStatus = models.PayoutStatusPartiallyPaid

	h := newHarness(t, nil, nil, b)
	h.proc.On("Transfer", mock.Anything, mock.MatchedBy(func(r processor.TransferRequest) bool {
		return r.Amount == 500 && r.IdempotencyKey == "bk-1:final:0"
	})).Return(transferOK("tr_2"), nil).Once()

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Released)
	assert.Equal(t, 1, report.Paid)

	stored := h.store.get("bk-1")
	assert.True(t, stored.FinalPayoutProcessed)
	assert.InDelta(t, 500, stored.FinalPayoutAmount, 0.001)
	assert.Equal(t, models.PayoutStatusCompleted, stored.PayoutStatus)
	assert.Equal(t, models.BookingStatusCompleted, stored.Status)

	_, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	h.proc.AssertNumberOfCalls(t, "Transfer", 1)
}

func TestCheckpointApprovalReleasesCheckpointPayout(t *testing.T) {
	b := pendingRetry(bookingFor(t, 100, 45, 0))
	b.StartDate = testNow.AddDate(0, 0, -9)
	b.EndDate = b.StartDate.AddDate(0, 0, 45)
	b.FirstPayoutProcessed = true
	b.PayoutStatus = models.PayoutStatusPartiallyPaid

	sched, err := CalculatePayoutSchedule(DefaultTierConfig(), 45, 100, 0)
	require.NoError(t, err)
	b.VerificationSchedule = BuildVerificationSchedule(DefaultTierConfig(), b.StartDate, 45, sched)
	b.VerificationSchedule[0].Completed = true
	b.VerificationSchedule[0].UploadedAt = ptr(testNow.Add(-50 * time.Hour))

	h := newHarness(t, nil, nil, b)
	h.proc.On("Transfer", mock.Anything, mock.MatchedBy(func(r processor.TransferRequest) bool {
		return r.Amount == 270 && r.IdempotencyKey == "bk-1:checkpoint-0:0"
	})).Return(transferOK("tr_3"), nil).Once()

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CheckpointsApproved)
	assert.Equal(t, models.PayoutStatusPending, h.store.get("bk-1").PayoutStatus)

	report, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Paid)

	stored := h.store.get("bk-1")
	assert.True(t, stored.VerificationSchedule[0].PayoutProcessed)
	assert.False(t, stored.VerificationSchedule[1].PayoutProcessed)
	assert.Equal(t, models.PayoutStatusPartiallyPaid, stored.PayoutStatus)
	assert.False(t, stored.FinalPayoutProcessed)
}

func TestSettleSkipsTrancheAlreadyPaidConcurrently(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	h.store.beforeGet = func(b *models.Booking) {
		b.FirstPayoutProcessed = true
	}

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	h.proc.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestApproveProofsQueuesPayoutWhenAccountLookupFails(t *testing.T) {
	h := newHarness(t, &flakyAccounts{fakeAccounts: fakeAccounts{"own-1": activeAccount()}}, nil, testBooking(t))
	h.proc.On("HasAvailableBalance", mock.Anything, 550.0, "usd").Return(true, nil).Maybe()
	h.proc.On("Transfer", mock.Anything, mock.MatchedBy(func(r processor.TransferRequest) bool {
		return r.Amount == 550 && r.IdempotencyKey == "bk-1:first:0"
	})).Return(transferOK("tr_5"), nil).Once()

	report, err := h.exec.ApproveProofs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ProofsApproved)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "connection reset")

	stored := h.store.get("bk-1")
	assert.Equal(t, models.ProofStatusApproved, *stored.ProofStatus)
	assert.Equal(t, models.PayoutStatusPending, stored.PayoutStatus)
	assert.Zero(t, stored.PayoutAttempts)
	assert.Contains(t, stored.PayoutError, "connection reset")

	for range 3 {
		_, err := h.exec.ApproveProofs(context.Background())
		require.NoError(t, err)
		_, err = h.exec.RetryPayouts(context.Background())
		require.NoError(t, err)
	}

	stored = h.store.get("bk-1")
	assert.True(t, stored.FirstPayoutProcessed)
	assert.Equal(t, models.PayoutStatusPartiallyPaid, stored.PayoutStatus)
	assert.Empty(t, stored.PayoutError)
	assert.Equal(t, []string{"bk-1:first:0"}, h.proc.idempotencyKeys())
	assert.Equal(t, 1, h.notes.count("own-1", models.NotificationPayoutSent))
}

func TestRetryPayoutsReusesKeyWhenRecordingFails(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	failed := false
	h.store.beforeUpdate = func(_ *models.Booking, update models.BookingPayoutUpdate) error {
		if update.FirstPayoutProcessed != nil && !failed {
			failed = true
			return errors.New("write concern timeout")
		}
		return nil
	}
	h.proc.On("Transfer", mock.Anything, mock.MatchedBy(func(r processor.TransferRequest) bool {
		return r.IdempotencyKey == "bk-1:first:0"
	})).Return(transferOK("tr_6"), nil).Twice()

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)

	stored := h.store.get("bk-1")
	assert.False(t, stored.FirstPayoutProcessed)
	assert.Equal(t, models.PayoutStatusPending, stored.PayoutStatus)
	assert.Zero(t, stored.PayoutAttempts)
	assert.Contains(t, stored.PayoutError, "write concern timeout")

	report, err = h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Paid)

	stored = h.store.get("bk-1")
	assert.True(t, stored.FirstPayoutProcessed)
	assert.Equal(t, []string{"bk-1:first:0", "bk-1:first:0"}, h.proc.idempotencyKeys())
	assert.Equal(t, 1, h.notes.count("own-1", models.NotificationPayoutSent))
}

func TestRecordSuccessSkipsNoticeWhenTrancheRecordedConcurrently(t *testing.T) {
	h := newHarness(t, nil, nil, pendingRetry(testBooking(t)))
	h.store.beforeUpdate = func(b *models.Booking, update models.BookingPayoutUpdate) error {
		if update.FirstPayoutProcessed != nil {
			b.FirstPayoutProcessed = true
		}
		return nil
	}
	h.proc.On("Transfer", mock.Anything, mock.Anything).Return(transferOK("tr_7"), nil).Once()

	report, err := h.exec.RetryPayouts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Paid)
	assert.Empty(t, report.Errors)
	assert.Zero(t, h.notes.count("own-1", models.NotificationPayoutSent))
}

func TestApproveProofAdminOverride(t *testing.T) {
	rejected := testBooking(t)
	rejected.ProofStatus = ptr(models.ProofStatusRejected)
	rejected.ProofUploadedAt = ptr(testNow.Add(-time.Hour))

	noProof := testBooking(t)
	noProof.ID = "bk-2"
	noProof.ProofStatus = nil
	noProof.ProofUploadedAt = nil

	h := newHarness(t, nil, nil, rejected, noProof)
	h.proc.On("HasAvailableBalance", mock.Anything, 550.0, "usd").Return(true, nil)
	h.proc.On("Transfer", mock.Anything, mock.Anything).Return(transferOK("tr_4"), nil).Once()

	outcome, err := h.exec.ApproveProof(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
	assert.True(t, h.store.get("bk-1").FirstPayoutProcessed)

	outcome, err = h.exec.ApproveProof(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)

	_, err = h.exec.ApproveProof(context.Background(), "bk-2")
	assert.ErrorIs(t, err, ErrProofNotUploaded)

	_, err = h.exec.ApproveProof(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	h.proc.AssertNumberOfCalls(t, "Transfer", 1)
}

func TestNewExecutorValidatesDependencies(t *testing.T) {
	_, err := NewExecutor(DefaultExecutorConfig(), nil, fakeAccounts{}, fakeSpaces{}, &mockTransferer{}, &recordingNotifier{})
	assert.Error(t, err)

	cfg := DefaultExecutorConfig()
	cfg.MaxAttempts = 0
	_, err = NewExecutor(cfg, newFakeBookingStore(), fakeAccounts{}, fakeSpaces{}, &mockTransferer{}, &recordingNotifier{})
	assert.Error(t, err)
}
