package models

import "time"

// BookingPayoutUpdate carries a partial update of a booking's payout bookkeeping.
// Nil fields are left untouched.
type BookingPayoutUpdate struct {
	Status                   *BookingStatus
	ProofStatus              *ProofStatus
	ProofApprovedAt          *time.Time
	PayoutStatus             *PayoutStatus
	FirstPayoutProcessed     *bool
	FirstPayoutAt            *time.Time
	FirstPayoutAmount        *float64
	InstallationPayoutAmount *float64
	FinalPayoutProcessed     *bool
	FinalPayoutAt            *time.Time
	FinalPayoutAmount        *float64
	PayoutAttempts           *int
	LastPayoutAttemptAt      *time.Time
	PayoutError              *string
	NeedsReview              *bool
	VerificationSchedule     *[]VerificationCheckpoint
	UpdatedAt                time.Time
}

// PayoutGuard restricts an update to bookings whose state still matches what the caller read.
type PayoutGuard struct {
	// Tranche, when set, requires the tranche's idempotency flag to still be false.
	Tranche Tranche
	// CheckpointIndex selects the checkpoint for TrancheCheckpoint.
	CheckpointIndex int
	// ProofStatus, when set, requires the proof status to match.
	ProofStatus *ProofStatus
	// PayoutAttempts, when set, requires the attempt counter to match.
	PayoutAttempts *int
}

// Matches reports whether b satisfies the guard.
func (g PayoutGuard) Matches(b *Booking) bool {
	switch g.Tranche {
	case TrancheFirst:
		if b.FirstPayoutProcessed {
			return false
		}
	case TrancheFinal:
		if b.FinalPayoutProcessed {
			return false
		}
	case TrancheCheckpoint:
		found := false
		for _, cp := range b.VerificationSchedule {
			if cp.Index == g.CheckpointIndex {
				found = !cp.PayoutProcessed
			}
		}
		if !found {
			return false
		}
	}
	if g.ProofStatus != nil && (b.ProofStatus == nil || *b.ProofStatus != *g.ProofStatus) {
		return false
	}
	if g.PayoutAttempts != nil && b.PayoutAttempts != *g.PayoutAttempts {
		return false
	}
	return true
}

// ApplyTo writes every non-nil field of u onto b.
func (u BookingPayoutUpdate) ApplyTo(b *Booking) {
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.ProofStatus != nil {
		ps := *u.ProofStatus
		b.ProofStatus = &ps
	}
	if u.ProofApprovedAt != nil {
		t := *u.ProofApprovedAt
		b.ProofApprovedAt = &t
	}
	if u.PayoutStatus != nil {
		b.PayoutStatus = *u.PayoutStatus
	}
	if u.FirstPayoutProcessed != nil {
		b.FirstPayoutProcessed = *u.FirstPayoutProcessed
	}
	if u.FirstPayoutAt != nil {
		t := *u.FirstPayoutAt
		b.FirstPayoutAt = &t
	}
	if u.FirstPayoutAmount != nil {
		b.FirstPayoutAmount = *u.FirstPayoutAmount
	}
	if u.InstallationPayoutAmount != nil {
		b.InstallationPayoutAmount = *u.InstallationPayoutAmount
	}
	if u.FinalPayoutProcessed != nil {
		b.FinalPayoutProcessed = *u.FinalPayoutProcessed
	}
	if u.FinalPayoutAt != nil {
		t := *u.FinalPayoutAt
		b.FinalPayoutAt = &t
	}
	if u.FinalPayoutAmount != nil {
		b.FinalPayoutAmount = *u.FinalPayoutAmount
	}
	if u.PayoutAttempts != nil {
		b.PayoutAttempts = *u.PayoutAttempts
	}
	if u.LastPayoutAttemptAt != nil {
		t := *u.LastPayoutAttemptAt
		b.LastPayoutAttemptAt = &t
	}
	if u.PayoutError != nil {
		b.PayoutError = *u.PayoutError
	}
	if u.NeedsReview != nil {
		b.NeedsReview = *u.NeedsReview
	}
	if u.VerificationSchedule != nil {
		b.VerificationSchedule = append([]VerificationCheckpoint(nil), (*u.VerificationSchedule)...)
	}
	if !u.UpdatedAt.IsZero() {
		b.UpdatedAt = u.UpdatedAt
	}
}
