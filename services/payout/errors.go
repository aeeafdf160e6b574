package payout

import (
	"errors"
	"fmt"
)

// MissingChargeReferenceError means the booking has no originating charge to source a transfer from.
type MissingChargeReferenceError struct {
	BookingID string
}

func (e *MissingChargeReferenceError) Error() string {
	return fmt.Sprintf("booking %s has no charge reference; manual review required", e.BookingID)
}

// AccountNotPayableError means the owner's payout destination cannot receive transfers right now.
type AccountNotPayableError struct {
	OwnerID string
	Reason  string
}

func (e *AccountNotPayableError) Error() string {
	return fmt.Sprintf("payout account for owner %s is not payable: %s", e.OwnerID, e.Reason)
}

// ProcessorFailureError is a transfer failure other than insufficient balance.
type ProcessorFailureError struct {
	BookingID string
	Tranche   string
	Err       error
}

func (e *ProcessorFailureError) Error() string {
	return fmt.Sprintf("transfer of %s tranche for booking %s failed: %v", e.Tranche, e.BookingID, e.Err)
}

func (e *ProcessorFailureError) Unwrap() error { return e.Err }

var ErrProofNotUploaded = errors.New("booking has no proof of installation")

func IsMissingChargeReference(err error) bool {
	var target *MissingChargeReferenceError
	return errors.As(err, &target)
}

func IsAccountNotPayable(err error) bool {
	var target *AccountNotPayableError
	return errors.As(err, &target)
}

func IsProcessorFailure(err error) bool {
	var target *ProcessorFailureError
	return errors.As(err, &target)
}

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingNotApprovable = errors.New("booking cannot be approved in its current state")
)
