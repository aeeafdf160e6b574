package pricing

import (
	"github.com/shopspring/decimal"
)

// BookingCost is the money breakdown of a booking. All values carry two decimals.
type BookingCost struct {
	RentalCost       float64 `json:"rentalCost"`
	InstallationFee  float64 `json:"installationFee"`
	Subtotal         float64 `json:"subtotal"`
	PlatformFee      float64 `json:"platformFee"`
	ProcessorFee     float64 `json:"processorFee"`
	TotalCharged     float64 `json:"totalCharged"`
	SpaceOwnerAmount float64 `json:"spaceOwnerAmount"`
}

// CalculateBookingCost computes what the advertiser is charged and what the space owner is owed.
// The platform fee applies to rental only; the processor fee is computed on the amount actually charged.
// Each output is rounded once, half-up, to the cent; totalCharged is the sum of its rounded parts.
func CalculateBookingCost(cfg Config, dailyRate float64, totalDays int, installationFee float64) (*BookingCost, error) {
	if dailyRate <= 0 {
		return nil, &InvalidInputError{Field: "dailyRate", Reason: "must be greater than 0"}
	}
	if totalDays <= 0 {
		return nil, &InvalidInputError{Field: "totalDays", Reason: "must be greater than 0"}
	}
	if installationFee < 0 {
		return nil, &InvalidInputError{Field: "installationFee", Reason: "must not be negative"}
	}

	rate := decimal.NewFromFloat(dailyRate)
	install := decimal.NewFromFloat(installationFee)

	rental := rate.Mul(decimal.NewFromInt(int64(totalDays)))
	subtotal := rental.Add(install)

	minimum := decimal.NewFromFloat(cfg.MinimumSubtotal)
	if subtotal.LessThan(minimum) {
		return nil, &BelowMinimumError{
			Minimum:  cfg.MinimumSubtotal,
			Subtotal: toCents(subtotal),
		}
	}

	platformFee := rental.Mul(decimal.NewFromFloat(cfg.PlatformFeeRate))
	processorFee := subtotal.Add(platformFee).
		Mul(decimal.NewFromFloat(cfg.ProcessorPercentRate)).
		Add(decimal.NewFromFloat(cfg.ProcessorFixedFee))

	subtotalCents := subtotal.Round(2)
	platformCents := platformFee.Round(2)
	processorCents := processorFee.Round(2)

	return &BookingCost{
		RentalCost:       toCents(rental),
		InstallationFee:  toCents(install),
		Subtotal:         subtotalCents.InexactFloat64(),
		PlatformFee:      platformCents.InexactFloat64(),
		ProcessorFee:     processorCents.InexactFloat64(),
		TotalCharged:     subtotalCents.Add(platformCents).Add(processorCents).InexactFloat64(),
		SpaceOwnerAmount: subtotalCents.InexactFloat64(),
	}, nil
}

// RoundCents rounds an amount half-up to two decimals.
func RoundCents(amount float64) float64 {
	return toCents(decimal.NewFromFloat(amount))
}

// ToMinorUnits converts a currency amount to integer cents for the processor.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func toCents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
