package payout

import (
	"iter"
	"slices"
	"time"

	"adspace/models"
	"adspace/services/pricing"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierShort  Tier = "short"
	TierMedium Tier = "medium"
	TierLong   Tier = "long"
)

// PayoutSchedule splits a booking's rental into tranches. Installation is always its own tranche,
// paid with the first one as soon as proof is approved.
type PayoutSchedule struct {
	Tier               Tier    `json:"tier"`
	TotalRental        float64 `json:"totalRental"`
	InstallationPayout float64 `json:"installationPayout"`
	FirstPayout        float64 `json:"firstPayout"`
	FinalPayout        float64 `json:"finalPayout"`
	CheckpointCount    int     `json:"checkpointCount"`
	CheckpointPayout   float64 `json:"checkpointPayout"`
}

// CalculatePayoutSchedule computes the tranche amounts for a booking.
// The final tranche takes whatever the first tranche and checkpoints leave, so the tranches always
// sum to the rental exactly. When a long campaign yields no checkpoints, their share folds into the final.
func CalculatePayoutSchedule(cfg TierConfig, totalDays int, dailyRate, installationFee float64) (*PayoutSchedule, error) {
	if totalDays <= 0 {
		return nil, &pricing.InvalidInputError{Field: "totalDays", Reason: "must be greater than 0"}
	}
	if dailyRate <= 0 {
		return nil, &pricing.InvalidInputError{Field: "dailyRate", Reason: "must be greater than 0"}
	}
	if installationFee < 0 {
		return nil, &pricing.InvalidInputError{Field: "installationFee", Reason: "must not be negative"}
	}

	rental := decimal.NewFromFloat(dailyRate).Mul(decimal.NewFromInt(int64(totalDays))).Round(2)
	sched := &PayoutSchedule{
		TotalRental:        rental.InexactFloat64(),
		InstallationPayout: decimal.NewFromFloat(installationFee).Round(2).InexactFloat64(),
	}

	var first decimal.Decimal
	checkpointsTotal := decimal.Zero

	switch {
	case totalDays <= cfg.ShortMaxDays:
		sched.Tier = TierShort
		first = share(rental, cfg.ShortFirstShare)
	case totalDays <= cfg.MediumMaxDays:
		sched.Tier = TierMedium
		first = share(rental, cfg.MediumFirstShare)
	default:
		sched.Tier = TierLong
		first = share(rental, cfg.LongFirstShare)
		count := checkpointCount(cfg, totalDays)
		if count > 0 {
			remainder := rental.Sub(first).Sub(share(rental, cfg.LongFinalShare))
			per := remainder.Div(decimal.NewFromInt(int64(count))).Round(2)
			sched.CheckpointCount = count
			sched.CheckpointPayout = per.InexactFloat64()
			checkpointsTotal = per.Mul(decimal.NewFromInt(int64(count)))
		}
	}

	sched.FirstPayout = first.InexactFloat64()
	sched.FinalPayout = rental.Sub(first).Sub(checkpointsTotal).InexactFloat64()
	return sched, nil
}

func checkpointCount(cfg TierConfig, totalDays int) int {
	interval := cfg.CheckpointIntervalDays
	if interval <= 0 {
		return 0
	}
	return totalDays/interval - 1
}

func share(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(2)
}

// VerificationDates yields a checkpoint due date every interval from start, strictly before the
// campaign's last day, for campaigns longer than the medium tier. The sequence is finite and can be
// ranged over any number of times with the same result.
func VerificationDates(cfg TierConfig, start time.Time, totalDays int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if totalDays <= cfg.MediumMaxDays || cfg.CheckpointIntervalDays <= 0 {
			return
		}
		for day := cfg.CheckpointIntervalDays; day < totalDays; day += cfg.CheckpointIntervalDays {
			if !yield(start.AddDate(0, 0, day)) {
				return
			}
		}
	}
}

// GenerateVerificationDates collects VerificationDates into a slice.
func GenerateVerificationDates(cfg TierConfig, start time.Time, totalDays int) []time.Time {
	dates := slices.Collect(VerificationDates(cfg, start, totalDays))
	if dates == nil {
		return []time.Time{}
	}
	return dates
}

// BuildVerificationSchedule pairs verification dates with checkpoint payouts. Dates beyond the
// paid checkpoint count are proof-only checkpoints with a zero payout.
func BuildVerificationSchedule(cfg TierConfig, start time.Time, totalDays int, sched *PayoutSchedule) []models.VerificationCheckpoint {
	var checkpoints []models.VerificationCheckpoint
	i := 0
	for due := range VerificationDates(cfg, start, totalDays) {
		cp := models.VerificationCheckpoint{
			Index:     i,
			DueDate:   due,
			DayOffset: (i + 1) * cfg.CheckpointIntervalDays,
		}
		if sched != nil && i < sched.CheckpointCount {
			cp.PayoutAmount = sched.CheckpointPayout
		}
		checkpoints = append(checkpoints, cp)
		i++
	}
	return checkpoints
}
