package payout

import (
	"time"

	"adspace/services/pricing"
)

// TierConfig defines how a booking's rental is split into tranches by campaign length.
// Tier boundaries are upper-inclusive.
type TierConfig struct {
	ShortMaxDays  int
	MediumMaxDays int

	ShortFirstShare  float64
	MediumFirstShare float64
	LongFirstShare   float64
	LongFinalShare   float64

	CheckpointIntervalDays int
}

func DefaultTierConfig() TierConfig {
	return TierConfig{
		ShortMaxDays:           7,
		MediumMaxDays:          30,
		ShortFirstShare:        0.70,
		MediumFirstShare:       0.50,
		LongFirstShare:         0.40,
		LongFinalShare:         0.30,
		CheckpointIntervalDays: 7,
	}
}

// ExecutorConfig is the immutable policy the payout executor runs with.
type ExecutorConfig struct {
	Pricing        pricing.Config
	Tiers          TierConfig
	ApprovalWindow time.Duration
	MaxAttempts    int
	Currency       string
	OperatorUserID string
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Pricing:        pricing.DefaultConfig(),
		Tiers:          DefaultTierConfig(),
		ApprovalWindow: 48 * time.Hour,
		MaxAttempts:    10,
		Currency:       "usd",
	}
}
