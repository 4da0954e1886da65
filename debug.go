package restfit

import (
	"github.com/google/uuid"
)

// DebugConfig controls the diagnostic logging emitted around the dispatch
// pipeline. All flags are off until Enabled is set.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogCircuit   bool
	LogRateLimit bool

	// RequestIDGen produces the correlation ID attached to one invocation's
	// log lines.
	RequestIDGen func() string
}

// DefaultDebugConfig returns a disabled configuration with every log
// category selected and UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		LogRequests:  true,
		LogRetries:   true,
		LogCircuit:   true,
		LogRateLimit: true,
		RequestIDGen: uuid.NewString,
	}
}
