package restfit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format identifies a policy document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Durations in policy documents are expressed in milliseconds, matching the
// numeric fields of the declarative configs this format mirrors.
type policyDoc struct {
	Retry          *retryDoc   `koanf:"retry"`
	CircuitBreaker *breakerDoc `koanf:"circuitBreaker"`
}

type retryDoc struct {
	Disabled             bool     `koanf:"disabled"`
	Retries              *int     `koanf:"retries"`
	BaseDelayMs          *int64   `koanf:"baseDelayMs"`
	MaxDelayMs           *int64   `koanf:"maxDelayMs"`
	Exponential          *bool    `koanf:"exponential"`
	Multiplier           *float64 `koanf:"multiplier"`
	Jitter               *float64 `koanf:"jitter"`
	RetryableStatusCodes []int    `koanf:"retryableStatusCodes"`
	RetryOnNetworkError  *bool    `koanf:"retryOnNetworkError"`
}

type breakerDoc struct {
	Disabled         bool   `koanf:"disabled"`
	FailureThreshold *int   `koanf:"failureThreshold"`
	WindowMs         *int64 `koanf:"windowMs"`
	OpenTimeoutMs    *int64 `koanf:"openTimeoutMs"`
	MinimumRequests  *int   `koanf:"minimumRequests"`
	ErrorStatusCodes []int  `koanf:"errorStatusCodes"`
}

// PolicyFromBytes parses a resilience policy document. Absent fields stay
// nil, so the result composes with MergePolicies exactly like a hand-built
// override.
func PolicyFromBytes(data []byte, format Format) (Policy, error) {
	var parser koanf.Parser
	switch format {
	case FormatJSON:
		parser = kjson.Parser()
	case FormatYAML:
		parser = kyaml.Parser()
	default:
		return Policy{}, fmt.Errorf("restfit: unsupported policy format %q", format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Policy{}, fmt.Errorf("restfit: parse policy: %w", err)
	}

	var doc policyDoc
	if err := k.Unmarshal("", &doc); err != nil {
		return Policy{}, fmt.Errorf("restfit: decode policy: %w", err)
	}

	return doc.toPolicy(), nil
}

// PolicyFromFile loads a resilience policy document, detecting the format
// from the file extension (.json, .yaml, .yml).
func PolicyFromFile(path string) (Policy, error) {
	var format Format
	switch filepath.Ext(path) {
	case ".json":
		format = FormatJSON
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return Policy{}, fmt.Errorf("restfit: cannot detect policy format of %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("restfit: read policy: %w", err)
	}

	return PolicyFromBytes(data, format)
}

func (d policyDoc) toPolicy() Policy {
	var p Policy
	if d.Retry != nil {
		p.Retry = &RetryPolicy{
			Disabled:             d.Retry.Disabled,
			Retries:              d.Retry.Retries,
			BaseDelay:            millis(d.Retry.BaseDelayMs),
			MaxDelay:             millis(d.Retry.MaxDelayMs),
			Exponential:          d.Retry.Exponential,
			Multiplier:           d.Retry.Multiplier,
			Jitter:               d.Retry.Jitter,
			RetryableStatusCodes: d.Retry.RetryableStatusCodes,
			RetryOnNetworkError:  d.Retry.RetryOnNetworkError,
		}
	}
	if d.CircuitBreaker != nil {
		p.CircuitBreaker = &CircuitBreakerPolicy{
			Disabled:         d.CircuitBreaker.Disabled,
			FailureThreshold: d.CircuitBreaker.FailureThreshold,
			Window:           millis(d.CircuitBreaker.WindowMs),
			OpenTimeout:      millis(d.CircuitBreaker.OpenTimeoutMs),
			MinimumRequests:  d.CircuitBreaker.MinimumRequests,
			ErrorStatusCodes: d.CircuitBreaker.ErrorStatusCodes,
		}
	}
	return p
}

func millis(v *int64) *time.Duration {
	if v == nil {
		return nil
	}
	d := time.Duration(*v) * time.Millisecond
	return &d
}
