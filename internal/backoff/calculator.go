package backoff

import (
	"time"
)

// Calculator computes retry delays using a configurable strategy.
type Calculator struct {
	strategy Strategy
}

// NewCalculator creates a calculator with the given strategy.
func NewCalculator(strategy Strategy) *Calculator {
	return &Calculator{strategy: strategy}
}

// Exponential returns a calculator using exponential backoff.
func Exponential() *Calculator {
	return NewCalculator(ExponentialStrategy{})
}

// Constant returns a calculator using a constant delay.
func Constant() *Calculator {
	return NewCalculator(ConstantStrategy{})
}

// Calculate computes the delay before the retry with the given zero-based
// count.
func (c *Calculator) Calculate(retryCount int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration {
	return c.strategy.Calculate(retryCount, baseDelay, maxDelay, multiplier, jitter)
}
