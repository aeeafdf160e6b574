package pricing

import (
	"math"

	"adspace/models"
)

// VerifyBookingAmount recomputes the cost of a persisted booking from its stored rate and duration and
// compares every derived amount. It must run immediately before a transfer is authorised.
func VerifyBookingAmount(cfg Config, b *models.Booking, installationFee float64) error {
	expected, err := CalculateBookingCost(cfg, b.DailyRate, b.TotalDays, installationFee)
	if err != nil {
		return err
	}

	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = 0.01
	}

	checks := []struct {
		field    string
		expected float64
		actual   float64
	}{
		{"subtotal", expected.Subtotal, b.Subtotal},
		{"platformFee", expected.PlatformFee, b.PlatformFee},
		{"processorFee", expected.ProcessorFee, b.ProcessorFee},
		{"totalCharged", expected.TotalCharged, b.TotalCharged},
		{"spaceOwnerAmount", expected.SpaceOwnerAmount, b.SpaceOwnerAmount},
	}
	for _, c := range checks {
		if math.Abs(c.expected-c.actual) > tolerance+1e-9 {
			return &AmountMismatchError{Field: c.field, Expected: c.expected, Actual: c.actual}
		}
	}
	return nil
}
