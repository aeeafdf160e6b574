package pricing

import (
	"errors"
	"fmt"
)

// InvalidInputError is a caller error naming the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// BelowMinimumError rejects bookings whose subtotal would not cover the processor's fixed fee.
type BelowMinimumError struct {
	Minimum  float64
	Subtotal float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("booking subtotal $%.2f is below the minimum of $%.2f; extend the duration or raise the rate",
		e.Subtotal, e.Minimum)
}

// AmountMismatchError reports the first persisted amount that disagrees with a fresh calculation.
type AmountMismatchError struct {
	Field    string
	Expected float64
	Actual   float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch on %s: expected %.2f, stored %.2f", e.Field, e.Expected, e.Actual)
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsBelowMinimum(err error) bool {
	var target *BelowMinimumError
	return errors.As(err, &target)
}

func IsAmountMismatch(err error) bool {
	var target *AmountMismatchError
	return errors.As(err, &target)
}
