package payout

import "fmt"

// Outcome is what happened to a single booking during a sweep.
type Outcome string

const (
	OutcomePaid       Outcome = "paid"
	OutcomeDeferred   Outcome = "deferred"
	OutcomeNotPayable Outcome = "not_payable"
	OutcomeParked     Outcome = "parked"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
)

// SweepReport summarises one run of a scheduled sweep.
type SweepReport struct {
	Candidates          int      `json:"candidates"`
	ProofsApproved      int      `json:"proofsApproved"`
	CheckpointsApproved int      `json:"checkpointsApproved"`
	Released            int      `json:"released"`
	Paid                int      `json:"paid"`
	Deferred            int      `json:"deferred"`
	NotPayable          int      `json:"notPayable"`
	Parked              int      `json:"parked"`
	Failed              int      `json:"failed"`
	Skipped             int      `json:"skipped"`
	Errors              []string `json:"errors,omitempty"`
}

func (r *SweepReport) record(o Outcome) {
	switch o {
	case OutcomePaid:
		r.Paid++
	case OutcomeDeferred:
		r.Deferred++
	case OutcomeNotPayable:
		r.NotPayable++
	case OutcomeParked:
		r.Parked++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	}
}

func (r *SweepReport) recordError(bookingID string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", bookingID, err))
}
