package pricing

// Config holds the fee model. It is passed by value into every calculation.
type Config struct {
	PlatformFeeRate      float64
	ProcessorPercentRate float64
	ProcessorFixedFee    float64
	MinimumSubtotal      float64
	// Tolerance is the largest difference two amounts may have and still be considered equal.
	Tolerance float64
}

// DefaultConfig returns the production fee model: 10% platform fee on rental,
// 2.9% + $0.30 processor fee and a $10 floor.
func DefaultConfig() Config {
	return Config{
		PlatformFeeRate:      0.10,
		ProcessorPercentRate: 0.029,
		ProcessorFixedFee:    0.30,
		MinimumSubtotal:      10,
		Tolerance:            0.01,
	}
}
