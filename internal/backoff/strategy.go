package backoff

import (
	"math/rand"
	"time"
)

// Strategy defines the interface for backoff calculation algorithms.
type Strategy interface {
	// Calculate returns the delay before the retry with the given zero-based
	// count. jitter is a fraction [0, 1] of the computed delay added
	// uniformly at random.
	Calculate(retryCount int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration
}

// ExponentialStrategy grows the delay as baseDelay * multiplier^retryCount,
// capped at maxDelay.
type ExponentialStrategy struct{}

// Calculate implements Strategy.
func (ExponentialStrategy) Calculate(retryCount int, baseDelay, maxDelay time.Duration, multiplier, jitter float64) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}

	// Prevent overflow by limiting the exponent.
	if retryCount > 30 {
		retryCount = 30
	}

	delay := time.Duration(float64(baseDelay) * Pow(multiplier, retryCount))
	if delay < 0 || delay > maxDelay {
		delay = maxDelay
	}

	return applyJitter(delay, maxDelay, jitter)
}

// ConstantStrategy always waits baseDelay.
type ConstantStrategy struct{}

// Calculate implements Strategy.
func (ConstantStrategy) Calculate(_ int, baseDelay, maxDelay time.Duration, _, jitter float64) time.Duration {
	delay := baseDelay
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return applyJitter(delay, maxDelay, jitter)
}

func applyJitter(delay, maxDelay time.Duration, jitter float64) time.Duration {
	jitter = clampJitter(jitter)
	if jitter == 0 {
		return delay
	}
	jitterAmount := time.Duration(float64(delay) * jitter * rand.Float64())
	if maxDelay > 0 && delay+jitterAmount > maxDelay {
		return maxDelay
	}
	return delay + jitterAmount
}

// clampJitter ensures jitter is within valid bounds [0, 1].
func clampJitter(jitter float64) float64 {
	if jitter < 0 {
		return 0
	}
	if jitter > 1 {
		return 1
	}
	return jitter
}

// Pow calculates base^exponent using integer exponentiation.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
