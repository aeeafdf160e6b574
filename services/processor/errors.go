package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientBalance is returned when the platform balance cannot cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient platform balance")
	// ErrAccountUnavailable is returned when a connected account no longer exists or access was revoked.
	ErrAccountUnavailable = errors.New("connected account unavailable")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// Error wraps a processor failure with the operation that produced it.
type Error struct {
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("processor %s failed (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("processor %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

func IsAccountUnavailable(err error) bool {
	return errors.Is(err, ErrAccountUnavailable)
}
