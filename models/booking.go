package models

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusDisputed  BookingStatus = "DISPUTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ProofStatus tracks the proof-of-installation review. A nil *ProofStatus means no proof was uploaded yet.
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "PENDING"
	ProofStatusApproved ProofStatus = "APPROVED"
	ProofStatusRejected ProofStatus = "REJECTED"
)

type PayoutStatus string

const (
	PayoutStatusUnscheduled   PayoutStatus = "UNSCHEDULED"
	PayoutStatusPartiallyPaid PayoutStatus = "PARTIALLY_PAID"
	PayoutStatusCompleted     PayoutStatus = "COMPLETED"
	PayoutStatusPending       PayoutStatus = "PENDING"
	PayoutStatusFailed        PayoutStatus = "FAILED"
)

// Booking is a confirmed, paid rental of an advertising space.
type Booking struct {
	ID           string `bson:"id" json:"id"`
	AdvertiserID string `bson:"advertiserId" json:"advertiserId"`
	SpaceID      string `bson:"spaceId" json:"spaceId"`
	SpaceOwnerID string `bson:"spaceOwnerId" json:"spaceOwnerId"`

	DailyRate       float64   `bson:"dailyRate" json:"dailyRate"`
	InstallationFee float64   `bson:"installationFee" json:"installationFee"`
	TotalDays       int       `bson:"totalDays" json:"totalDays"`
	StartDate       time.Time `bson:"startDate" json:"startDate"`
	EndDate         time.Time `bson:"endDate" json:"endDate"`

	// Amounts persisted at checkout; re-verified before every transfer.
	Subtotal         float64 `bson:"subtotal" json:"subtotal"`
	PlatformFee      float64 `bson:"platformFee" json:"platformFee"`
	ProcessorFee     float64 `bson:"processorFee" json:"processorFee"`
	TotalCharged     float64 `bson:"totalCharged" json:"totalCharged"`
	SpaceOwnerAmount float64 `bson:"spaceOwnerAmount" json:"spaceOwnerAmount"`

	Status          BookingStatus `bson:"status" json:"status"`
	ProofStatus     *ProofStatus  `bson:"proofStatus,omitempty" json:"proofStatus,omitempty"`
	ProofUploadedAt *time.Time    `bson:"proofUploadedAt,omitempty" json:"proofUploadedAt,omitempty"`
	ProofApprovedAt *time.Time    `bson:"proofApprovedAt,omitempty" json:"proofApprovedAt,omitempty"`

	PayoutStatus             PayoutStatus `bson:"payoutStatus" json:"payoutStatus"`
	FirstPayoutProcessed     bool         `bson:"firstPayoutProcessed" json:"firstPayoutProcessed"`
	FirstPayoutAt            *time.Time   `bson:"firstPayoutAt,omitempty" json:"firstPayoutAt,omitempty"`
	FirstPayoutAmount        float64      `bson:"firstPayoutAmount" json:"firstPayoutAmount"`
	InstallationPayoutAmount float64      `bson:"installationPayoutAmount" json:"installationPayoutAmount"`
	FinalPayoutProcessed     bool         `bson:"finalPayoutProcessed" json:"finalPayoutProcessed"`
	FinalPayoutAt            *time.Time   `bson:"finalPayoutAt,omitempty" json:"finalPayoutAt,omitempty"`
	FinalPayoutAmount        float64      `bson:"finalPayoutAmount" json:"finalPayoutAmount"`
	PayoutAttempts           int          `bson:"payoutAttempts" json:"payoutAttempts"`
	LastPayoutAttemptAt      *time.Time   `bson:"lastPayoutAttemptAt,omitempty" json:"lastPayoutAttemptAt,omitempty"`
	PayoutError              string       `bson:"payoutError,omitempty" json:"payoutError,omitempty"`
	NeedsReview              bool         `bson:"needsReview" json:"needsReview"`

	// ChargeID references the advertiser's original charge; transfers are sourced from it.
	ChargeID string `bson:"chargeId,omitempty" json:"chargeId,omitempty"`

	VerificationSchedule []VerificationCheckpoint `bson:"verificationSchedule,omitempty" json:"verificationSchedule,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VerificationCheckpoint is a recurring proof-of-continued-installation requirement for long campaigns.
type VerificationCheckpoint struct {
	Index           int        `bson:"index" json:"index"`
	DueDate         time.Time  `bson:"dueDate" json:"dueDate"`
	DayOffset       int        `bson:"dayOffset" json:"dayOffset"`
	PayoutAmount    float64    `bson:"payoutAmount" json:"payoutAmount"`
	Completed       bool       `bson:"completed" json:"completed"`
	ProofAssetID    string     `bson:"proofAssetId,omitempty" json:"proofAssetId,omitempty"`
	UploadedAt      *time.Time `bson:"uploadedAt,omitempty" json:"uploadedAt,omitempty"`
	ApprovedAt      *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	PayoutProcessed bool       `bson:"payoutProcessed" json:"payoutProcessed"`
	PayoutAt        *time.Time `bson:"payoutAt,omitempty" json:"payoutAt,omitempty"`
}

// Payable reports whether the checkpoint has been approved and still owes money.
func (c VerificationCheckpoint) Payable() bool {
	return c.Completed && c.ApprovedAt != nil && !c.PayoutProcessed && c.PayoutAmount > 0
}

// NextPayableCheckpoint returns the earliest approved checkpoint whose payout is outstanding.
func (b *Booking) NextPayableCheckpoint() (VerificationCheckpoint, bool) {
	for _, cp := range b.VerificationSchedule {
		if cp.Payable() {
			return cp, true
		}
	}
	return VerificationCheckpoint{}, false
}

// Tranche names a single scheduled payout of a booking.
type Tranche string

const (
	TrancheFirst      Tranche = "first"
	TrancheCheckpoint Tranche = "checkpoint"
	TrancheFinal      Tranche = "final"
)
